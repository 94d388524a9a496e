package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lshigami/bandwise/internal/dto"
	"github.com/lshigami/bandwise/internal/event"
	"github.com/lshigami/bandwise/internal/model"
)

func submitEssay(t *testing.T, h *harness, userID uint) uint {
	t.Helper()
	res, err := h.submitSvc.SubmitTest(context.Background(), 2, dto.SubmissionCreateDTO{
		UserID:  userID,
		Answers: []dto.UserAnswerDTO{{QuestionID: 22, UserAnswer: "Some people believe..."}},
	})
	if err != nil {
		t.Fatalf("SubmitTest returned error: %v", err)
	}
	return res.SubmissionID
}

func TestGradeManuallyAveragesRubric(t *testing.T) {
	h := newHarness()
	seedWriting(h)
	id := submitEssay(t, h, 5)

	res, err := h.writing.GradeManually(context.Background(), id, dto.ManualGradeDTO{
		Rubric:   dto.RubricDTO{TaskResponse: 6, CoherenceAndCohesion: 7, LexicalResource: 6, GrammaticalRange: 6},
		Feedback: &dto.RubricFeedbackDTO{TaskResponse: "Develop your second idea"},
		Comment:  "Solid attempt",
		GradedBy: "ms.tran",
	})
	if err != nil {
		t.Fatalf("GradeManually returned error: %v", err)
	}
	if res.Writing.HumanScore == nil || *res.Writing.HumanScore != 6.25 {
		t.Errorf("Expected human score 6.25, got %v", res.Writing.HumanScore)
	}
	if res.Score != 6.25 || res.RoundedBand != 6.5 {
		t.Errorf("Expected score 6.25 (band 6.5), got %v (band %v)", res.Score, res.RoundedBand)
	}
	if res.Status != string(model.StatusGraded) || res.Feedback != "Solid attempt" {
		t.Errorf("Unexpected status/feedback: %q %q", res.Status, res.Feedback)
	}
	if res.HumanAssessment == nil || res.HumanAssessment.Feedback.TaskResponse != "Develop your second idea" {
		t.Errorf("Expected per-criterion feedback to be kept, got %+v", res.HumanAssessment)
	}
	if !h.publisher.has(event.SubmissionGraded) {
		t.Errorf("Expected a SubmissionGraded event")
	}
}

func TestGradeManuallyRejectsOutOfBandRubric(t *testing.T) {
	h := newHarness()
	seedWriting(h)
	id := submitEssay(t, h, 5)

	_, err := h.writing.GradeManually(context.Background(), id, dto.ManualGradeDTO{
		Rubric: dto.RubricDTO{TaskResponse: 10, CoherenceAndCohesion: 7, LexicalResource: 6, GrammaticalRange: 6},
	})
	if !errors.Is(err, ErrInvalidRubric) {
		t.Fatalf("Expected ErrInvalidRubric, got %v", err)
	}
	stored, _ := h.submissions.FindByID(context.Background(), id)
	if stored.Status != model.StatusSubmitted || stored.HumanScore != nil {
		t.Errorf("Rejected rubric must not change the submission")
	}
}

func TestHumanScoreTakesPrecedenceOverAI(t *testing.T) {
	h := newHarness()
	seedWriting(h)
	id := submitEssay(t, h, 5)
	ctx := context.Background()

	if _, err := h.writing.GradeManually(ctx, id, dto.ManualGradeDTO{
		Rubric: dto.RubricDTO{TaskResponse: 6.5, CoherenceAndCohesion: 6.5, LexicalResource: 6.5, GrammaticalRange: 6.5},
	}); err != nil {
		t.Fatalf("GradeManually returned error: %v", err)
	}

	h.grader.enabled = true
	h.grader.assessment = &model.WritingAssessment{Rubric: &model.RubricScore{TaskResponse: 7, CoherenceAndCohesion: 7.5, LexicalResource: 7.5, GrammaticalRange: 7}}
	res, err := h.writing.GradeWithAI(ctx, id)
	if err != nil {
		t.Fatalf("GradeWithAI returned error: %v", err)
	}
	if *res.Writing.AIScore != 7.25 || *res.Writing.HumanScore != 6.5 {
		t.Errorf("Both scores must be kept, got human %v ai %v", *res.Writing.HumanScore, *res.Writing.AIScore)
	}
	if *res.Writing.DisplayScore != 6.5 || res.Score != 6.5 {
		t.Errorf("Expected the human score to be displayed, got %v", *res.Writing.DisplayScore)
	}
	stored, _ := h.submissions.FindByID(ctx, id)
	if *stored.Score != 6.5 {
		t.Errorf("Stored score should follow display precedence, got %v", *stored.Score)
	}
}

func TestGradeWithAIFailures(t *testing.T) {
	h := newHarness()
	seedWriting(h)
	seedReading(h)
	id := submitEssay(t, h, 5)
	ctx := context.Background()

	if _, err := h.writing.GradeWithAI(ctx, id); !errors.Is(err, ErrAIGradingDisabled) {
		t.Errorf("Expected ErrAIGradingDisabled, got %v", err)
	}

	h.grader.enabled = true
	h.grader.err = errors.New("quota exceeded")
	if _, err := h.writing.GradeWithAI(ctx, id); err == nil {
		t.Errorf("Expected grader error to surface")
	}
	stored, _ := h.submissions.FindByID(ctx, id)
	if stored.AIScore != nil || stored.Status != model.StatusSubmitted {
		t.Errorf("Failed AI pass must not change the submission")
	}

	reading, err := h.submitSvc.SubmitTest(ctx, 1, dto.SubmissionCreateDTO{UserID: 5, Answers: []dto.UserAnswerDTO{{QuestionID: 11, UserAnswer: "C"}}})
	if err != nil {
		t.Fatalf("SubmitTest returned error: %v", err)
	}
	if _, err := h.writing.GradeManually(ctx, reading.SubmissionID, dto.ManualGradeDTO{}); !errors.Is(err, ErrNotWritingTest) {
		t.Errorf("Expected ErrNotWritingTest, got %v", err)
	}
	if _, err := h.writing.GradeManually(ctx, 999, dto.ManualGradeDTO{}); !errors.Is(err, ErrSubmissionNotFound) {
		t.Errorf("Expected ErrSubmissionNotFound, got %v", err)
	}
}

func countKind(p *recordingPublisher, kind event.Kind) int {
	n := 0
	for _, k := range p.kinds() {
		if k == kind {
			n++
		}
	}
	return n
}

func uniformRubric(band float64) *model.RubricScore {
	return &model.RubricScore{TaskResponse: band, CoherenceAndCohesion: band, LexicalResource: band, GrammaticalRange: band}
}

func TestAIPassDroppedWhenEssayReplacedMidGrading(t *testing.T) {
	h := newHarness()
	seedWriting(h)
	id := submitEssay(t, h, 5)
	ctx := context.Background()

	if _, err := h.writing.GradeManually(ctx, id, dto.ManualGradeDTO{
		Rubric: dto.RubricDTO{TaskResponse: 4, CoherenceAndCohesion: 4, LexicalResource: 4, GrammaticalRange: 4},
	}); err != nil {
		t.Fatalf("GradeManually returned error: %v", err)
	}

	h.grader.enabled = true
	h.grader.assessment = &model.WritingAssessment{Rubric: uniformRubric(8)}
	h.grader.during = func() {
		if err := h.submissions.ReplaceAnswers(ctx, id, model.AnswerSheet{22: "final essay"}); err != nil {
			t.Errorf("ReplaceAnswers returned error: %v", err)
		}
	}

	if _, err := h.writing.GradeWithAI(ctx, id); !errors.Is(err, ErrSubmissionChanged) {
		t.Fatalf("Expected ErrSubmissionChanged, got %v", err)
	}

	stored, _ := h.submissions.FindByID(ctx, id)
	if stored.Answers.Data()[22] != "final essay" {
		t.Errorf("Expected the replaced essay to be kept, got %q", stored.Answers.Data()[22])
	}
	if stored.Status != model.StatusSubmitted || stored.Score != nil || stored.HumanScore != nil || stored.AIScore != nil {
		t.Errorf("Grades of the draft must not land on the new essay: status=%s score=%v human=%v ai=%v",
			stored.Status, stored.Score, stored.HumanScore, stored.AIScore)
	}
	if stored.HumanAssessment.Data().Present() || stored.AIAssessment.Data().Present() {
		t.Errorf("Expected both assessments to stay cleared")
	}
	if n := countKind(h.publisher, event.SubmissionGraded); n != 1 {
		t.Errorf("Expected only the examiner pass to publish SubmissionGraded, got %d", n)
	}
}

func TestResubmissionDuringAIPassGradesOnlyNewEssay(t *testing.T) {
	h := newHarness()
	seedWriting(h)
	id := submitEssay(t, h, 5)
	ctx := context.Background()

	h.grader.enabled = true
	h.grader.assessment = &model.WritingAssessment{Rubric: uniformRubric(7)}
	h.grader.during = func() {
		// The resubmission schedules its own AI pass, which runs inline here.
		if _, err := h.submitSvc.SubmitTest(ctx, 2, dto.SubmissionCreateDTO{
			UserID:  5,
			Answers: []dto.UserAnswerDTO{{QuestionID: 22, UserAnswer: "final essay"}},
		}); err != nil {
			t.Errorf("Resubmission returned error: %v", err)
		}
	}

	if _, err := h.writing.GradeWithAI(ctx, id); !errors.Is(err, ErrSubmissionChanged) {
		t.Fatalf("Expected the first pass to be superseded, got %v", err)
	}
	if len(h.grader.calls) != 2 || h.grader.calls[1][0].Essay != "final essay" {
		t.Fatalf("Expected a second pass over the new essay, got %d calls", len(h.grader.calls))
	}

	stored, _ := h.submissions.FindByID(ctx, id)
	if stored.Status != model.StatusGraded || stored.AIScore == nil || *stored.AIScore != 7 || stored.Revision != 1 {
		t.Errorf("Expected the new essay graded at revision 1, got status=%s ai=%v revision=%d", stored.Status, stored.AIScore, stored.Revision)
	}
}

func TestAIPassKeepsExaminerGradeThatLandedMeanwhile(t *testing.T) {
	h := newHarness()
	seedWriting(h)
	id := submitEssay(t, h, 5)
	ctx := context.Background()

	h.grader.enabled = true
	h.grader.assessment = &model.WritingAssessment{Rubric: uniformRubric(8), Comment: "AI comment"}
	h.grader.during = func() {
		if _, err := h.writing.GradeManually(ctx, id, dto.ManualGradeDTO{
			Rubric:  dto.RubricDTO{TaskResponse: 6, CoherenceAndCohesion: 6, LexicalResource: 6, GrammaticalRange: 6},
			Comment: "Examiner comment",
		}); err != nil {
			t.Errorf("GradeManually returned error: %v", err)
		}
	}

	res, err := h.writing.GradeWithAI(ctx, id)
	if err != nil {
		t.Fatalf("GradeWithAI returned error: %v", err)
	}
	if res.Writing.HumanScore == nil || *res.Writing.HumanScore != 6 || *res.Writing.AIScore != 8 {
		t.Errorf("Expected human 6 and ai 8, got %+v", res.Writing)
	}
	if res.Score != 6 || res.Feedback != "Examiner comment" {
		t.Errorf("Examiner grade must keep precedence, got score %v feedback %q", res.Score, res.Feedback)
	}
	if res.HumanAssessment == nil || res.HumanAssessment.Comment != "Examiner comment" {
		t.Errorf("Expected the examiner assessment to survive the AI pass, got %+v", res.HumanAssessment)
	}
}

func TestParseRubricResponse(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		wantErr bool
		wantTR  float64
	}{
		{"plain json", `{"rubric":{"task_response":6.5,"coherence_and_cohesion":6,"lexical_resource":7,"grammatical_range":6},"comment":" ok "}`, false, 6.5},
		{"fenced json", "```json\n{\"rubric\":{\"task_response\":7,\"coherence_and_cohesion\":7,\"lexical_resource\":7,\"grammatical_range\":7}}\n```", false, 7},
		{"clamped", `{"rubric":{"task_response":11,"coherence_and_cohesion":-1,"lexical_resource":7,"grammatical_range":6}}`, false, 9},
		{"missing rubric", `{"comment":"no scores"}`, true, 0},
		{"not json", "Score: 6.5\nFeedback: good", true, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseRubricResponse(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Errorf("Expected an error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got.Rubric.TaskResponse != tc.wantTR {
				t.Errorf("Expected task_response %v, got %v", tc.wantTR, got.Rubric.TaskResponse)
			}
			if got.Rubric.CoherenceAndCohesion < 0 {
				t.Errorf("Criteria must be clamped to the band, got %v", got.Rubric.CoherenceAndCohesion)
			}
		})
	}
}

func TestFetchImageData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/chart.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write([]byte{0x89, 'P', 'N', 'G'})
		case "/page":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	ctx := context.Background()

	data, mimeType, err := fetchImageData(ctx, srv.Client(), srv.URL+"/chart.png")
	if err != nil || mimeType != "image/png" || len(data) != 4 {
		t.Errorf("Expected a png, got %q (%d bytes, err %v)", mimeType, len(data), err)
	}
	if _, _, err := fetchImageData(ctx, srv.Client(), srv.URL+"/page"); err == nil {
		t.Errorf("Expected non-image content to be rejected")
	}
	if _, _, err := fetchImageData(ctx, srv.Client(), srv.URL+"/missing.png"); err == nil {
		t.Errorf("Expected a 404 to be reported")
	}
}

func TestBuildWritingPromptMentionsEveryTask(t *testing.T) {
	prompt := buildWritingPrompt([]EssayTask{
		{Order: 1, Prompt: "Summarise the chart", Essay: "The chart shows"},
		{Order: 2, Prompt: "Discuss both views", Essay: "Some people"},
	}, map[int]bool{1: true})

	for _, want := range []string{"Summarise the chart", "Discuss both views", "attached above", `"task_response"`} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected prompt to contain %q", want)
		}
	}
}
