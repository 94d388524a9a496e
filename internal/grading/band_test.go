package grading

import (
	"errors"
	"testing"

	"github.com/lshigami/bandwise/internal/model"
)

func TestRoundBand(t *testing.T) {
	testCases := []struct {
		in, expected float64
	}{
		{0, 0},
		{6.1, 6},
		{6.25, 6.5},
		{6.6, 6.5},
		{6.75, 7},
		{8.9, 9},
		{9, 9},
	}
	for _, tc := range testCases {
		if got := RoundBand(tc.in); got != tc.expected {
			t.Errorf("RoundBand(%.2f) expected %.1f, got %.1f", tc.in, tc.expected, got)
		}
	}
}

func TestAverageRubric(t *testing.T) {
	avg, err := AverageRubric(model.RubricScore{TaskResponse: 6, CoherenceAndCohesion: 7, LexicalResource: 6, GrammaticalRange: 6})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if avg != 6.25 {
		t.Errorf("Expected 6.25, got %.2f", avg)
	}

	_, err = AverageRubric(model.RubricScore{TaskResponse: 10})
	if !errors.Is(err, ErrInvalidRubric) {
		t.Errorf("Expected ErrInvalidRubric, got %v", err)
	}
}

func TestBandFromCounts(t *testing.T) {
	if got := BandFromCounts(0, 0); got != 0 {
		t.Errorf("Expected 0 for empty test, got %.2f", got)
	}
	if got := BandFromCounts(40, 40); got != 9 {
		t.Errorf("Expected 9, got %.2f", got)
	}
}
