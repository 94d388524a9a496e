package grading

import (
	"errors"
	"fmt"
	"math"

	"github.com/lshigami/bandwise/internal/model"
)

const (
	MinBand = 0.0
	MaxBand = 9.0
)

var ErrInvalidRubric = errors.New("invalid rubric score")

// BandFromCounts maps a correct/total ratio onto the 0-9 band. Zero total
// yields 0.
func BandFromCounts(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(correct) / float64(total) * MaxBand
}

// RoundBand rounds to the nearest half band the way IELTS reports overall
// scores: .25 goes up to .5 and .75 goes up to the next whole band.
func RoundBand(score float64) float64 {
	rounded := math.Floor(score*2+0.5) / 2
	return math.Max(MinBand, math.Min(MaxBand, rounded))
}

// ValidateRubric checks every criterion is within the band.
func ValidateRubric(r model.RubricScore) error {
	criteria := []struct {
		name  string
		value float64
	}{
		{"task_response", r.TaskResponse},
		{"coherence_and_cohesion", r.CoherenceAndCohesion},
		{"lexical_resource", r.LexicalResource},
		{"grammatical_range", r.GrammaticalRange},
	}
	for _, c := range criteria {
		if math.IsNaN(c.value) || c.value < MinBand || c.value > MaxBand {
			return fmt.Errorf("%w: %s=%.2f is outside %.0f-%.0f", ErrInvalidRubric, c.name, c.value, MinBand, MaxBand)
		}
	}
	return nil
}

// AverageRubric is the plain mean of the four criteria.
func AverageRubric(r model.RubricScore) (float64, error) {
	if err := ValidateRubric(r); err != nil {
		return 0, err
	}
	return (r.TaskResponse + r.CoherenceAndCohesion + r.LexicalResource + r.GrammaticalRange) / 4, nil
}
