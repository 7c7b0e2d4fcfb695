package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"techprep.io/interview-bot/internal/store"
)

const (
	defaultGradingModelName = "gemini-1.5-flash-latest"

	gradingSystemInstruction = "You are a technical interview coach evaluating a candidate's spoken-style answer " +
		"to an interview question. Judge correctness and coverage of the expected concepts. " +
		"Be encouraging but honest, and keep the feedback short (2-4 sentences). " +
		"Respond with a JSON object of the form {\"score\": <integer 1-10>, \"feedback\": \"<text>\"} and nothing else."
)

type LLMService struct {
	client *genai.Client
}

func NewLLMService(ctx context.Context, apiKey string) (*LLMService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &LLMService{client: client}, nil
}

func (s *LLMService) Close() {
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			log.Printf("Error closing GenAI client: %v", err)
		}
	}
}

type gradingResult struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// GradeResponse asks the model for feedback and a 1-10 score on a candidate
// answer. The score is clamped into range before it is returned.
func (s *LLMService) GradeResponse(ctx context.Context, question *store.Question, answer string) (string, int, error) {
	model := s.client.GenerativeModel(defaultGradingModelName)

	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(gradingSystemInstruction)},
	}

	temp := float32(0.2)
	maxTokens := int32(512)
	model.GenerationConfig = genai.GenerationConfig{
		MaxOutputTokens:  &maxTokens,
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
	}

	concepts := "not specified"
	if question.ExpectedConcepts != nil && *question.ExpectedConcepts != "" {
		concepts = *question.ExpectedConcepts
	}
	prompt := fmt.Sprintf("Question: %s\nExpected concepts: %s\nCandidate answer: %s",
		question.QuestionTextEN, concepts, answer)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", 0, fmt.Errorf("gemini grading request failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", 0, fmt.Errorf("gemini grading response was empty")
	}

	var raw strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			raw.WriteString(string(txt))
		}
	}

	text := strings.TrimSpace(raw.String())
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var result gradingResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return "", 0, fmt.Errorf("failed to parse grading response %q: %w", text, err)
	}
	if result.Feedback == "" {
		return "", 0, fmt.Errorf("grading response had no feedback text")
	}

	if result.Score < 1 {
		result.Score = 1
	}
	if result.Score > 10 {
		result.Score = 10
	}
	return result.Feedback, result.Score, nil
}
