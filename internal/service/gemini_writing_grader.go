package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/lshigami/bandwise/config"
	"github.com/lshigami/bandwise/internal/grading"
	"github.com/lshigami/bandwise/internal/model"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

const maxImageBytes = 10 << 20

type geminiWritingGrader struct {
	client     *genai.GenerativeModel
	httpClient *http.Client
}

// NewGeminiWritingGrader returns a grader that reports itself disabled when
// no API key is configured.
func NewGeminiWritingGrader(cfg *config.Config) (WritingGrader, error) {
	if cfg.Gemini.ApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. AI writing grading is disabled.")
		return &geminiWritingGrader{}, nil
	}
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Gemini.ApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	gm := client.GenerativeModel(cfg.Gemini.Model)
	gm.ResponseMIMEType = "application/json"
	gm.SetTemperature(0.2)
	return &geminiWritingGrader{client: gm, httpClient: http.DefaultClient}, nil
}

func (g *geminiWritingGrader) Enabled() bool {
	return g.client != nil
}

func fetchImageData(ctx context.Context, httpClient *http.Client, imageURL string) ([]byte, string, error) {
	if imageURL == "" {
		return nil, "", fmt.Errorf("image URL is empty")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("invalid image URL %s: %w", imageURL, err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch image from URL %s: %w", imageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to fetch image (status %d) from URL %s", resp.StatusCode, imageURL)
	}

	imageData, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image data from URL %s: %w", imageURL, err)
	}

	var mimeType string
	if contentType := resp.Header.Get("Content-Type"); contentType != "" {
		parsedMime, _, parseErr := mime.ParseMediaType(contentType)
		if parseErr == nil && strings.HasPrefix(parsedMime, "image/") {
			mimeType = parsedMime
		}
	}
	if mimeType == "" {
		ext := filepath.Ext(imageURL)
		mimeType = mime.TypeByExtension(ext)
		if mimeType == "" || !strings.HasPrefix(mimeType, "image/") {
			return nil, "", fmt.Errorf("unsupported or undeterminable image MIME type for %s", imageURL)
		}
	}
	return imageData, mimeType, nil
}

// rubricResponse is the JSON object the model is asked to return.
type rubricResponse struct {
	Rubric   *model.RubricScore    `json:"rubric"`
	Feedback *model.RubricFeedback `json:"feedback"`
	Comment  string                `json:"comment"`
}

// parseRubricResponse decodes the model output, tolerating a fenced code
// block, and clamps every criterion to the band.
func parseRubricResponse(raw string) (*model.WritingAssessment, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var parsed rubricResponse
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("could not parse AI response as JSON: %w", err)
	}
	if parsed.Rubric == nil {
		return nil, fmt.Errorf("AI response has no rubric")
	}

	r := parsed.Rubric
	r.TaskResponse = clampBand(r.TaskResponse)
	r.CoherenceAndCohesion = clampBand(r.CoherenceAndCohesion)
	r.LexicalResource = clampBand(r.LexicalResource)
	r.GrammaticalRange = clampBand(r.GrammaticalRange)

	return &model.WritingAssessment{
		Rubric:   r,
		Feedback: parsed.Feedback,
		Comment:  strings.TrimSpace(parsed.Comment),
	}, nil
}

func clampBand(v float64) float64 {
	if v > grading.MaxBand {
		return grading.MaxBand
	}
	if v < grading.MinBand || math.IsNaN(v) {
		return grading.MinBand
	}
	return v
}

const outputFormatInstruction = `
Assess the response against the four IELTS Writing band descriptors. Give each
criterion a band from 0 to 9 in steps of 0.5, and short, concrete feedback that
quotes the candidate's own sentences and shows how to improve them.

Respond with a single JSON object and nothing else:
{
  "rubric": {
    "task_response": <band>,
    "coherence_and_cohesion": <band>,
    "lexical_resource": <band>,
    "grammatical_range": <band>
  },
  "feedback": {
    "task_response": "<feedback>",
    "coherence_and_cohesion": "<feedback>",
    "lexical_resource": "<feedback>",
    "grammatical_range": "<feedback>"
  },
  "comment": "<overall comment>"
}
`

func buildWritingPrompt(tasks []EssayTask, withImage map[int]bool) string {
	var b strings.Builder
	b.WriteString("You are an experienced IELTS Writing examiner.\n")
	b.WriteString("Evaluate the candidate's writing below. When there are several tasks, give one combined band per criterion, weighting Task 2 twice as heavily as Task 1.\n\n")

	for _, t := range tasks {
		fmt.Fprintf(&b, "Task %d prompt:\n---\n%s\n---\n", t.Order, t.Prompt)
		if withImage[t.Order] {
			fmt.Fprintf(&b, "The chart or diagram for task %d is attached above.\n", t.Order)
		}
		fmt.Fprintf(&b, "Candidate's response to task %d:\n---\n%s\n---\n\n", t.Order, t.Essay)
	}
	b.WriteString(outputFormatInstruction)
	return b.String()
}

func (g *geminiWritingGrader) GradeEssays(ctx context.Context, tasks []EssayTask) (*model.WritingAssessment, error) {
	if g.client == nil {
		return nil, ErrAIGradingDisabled
	}

	var parts []genai.Part
	withImage := make(map[int]bool)
	for _, t := range tasks {
		if t.ImageURL == nil || *t.ImageURL == "" {
			continue
		}
		imageData, mimeType, err := fetchImageData(ctx, g.httpClient, *t.ImageURL)
		if err != nil {
			// Grade the text anyway; the prompt just won't mention the chart.
			log.Warn().Err(err).Str("imageURL", *t.ImageURL).Msg("Failed to fetch task image for grading")
			continue
		}
		parts = append(parts, genai.ImageData(strings.TrimPrefix(mimeType, "image/"), imageData))
		withImage[t.Order] = true
	}
	parts = append(parts, genai.Text(buildWritingPrompt(tasks, withImage)))

	resp, err := g.client.GenerateContent(ctx, parts...)
	if err != nil {
		log.Error().Err(err).Int("tasks", len(tasks)).Msg("Gemini API error during writing grading")
		return nil, fmt.Errorf("gemini API error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini returned no content")
	}

	var fullResponseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			fullResponseText.WriteString(string(txt))
		}
	}
	if fullResponseText.Len() == 0 {
		return nil, fmt.Errorf("gemini returned no text content")
	}

	assessment, err := parseRubricResponse(fullResponseText.String())
	if err != nil {
		log.Warn().Err(err).Str("rawResponse", fullResponseText.String()).Msg("Failed to parse rubric from Gemini response")
		return nil, err
	}
	return assessment, nil
}
