package core

import (
	"context"
	"log"
	"sync"
	"time"

	"techprep.io/interview-bot/internal/store"
)

// terminalFeedback is persisted once grading retries are exhausted, so the
// response leaves the "pending feedback" state either way.
const terminalFeedback = "Feedback unavailable"

// ResponseGrader produces feedback text and a 1-10 score for an answer.
// *LLMService is the production implementation.
type ResponseGrader interface {
	GradeResponse(ctx context.Context, question *store.Question, answer string) (feedback string, score int, err error)
}

// ScoringService grades recorded responses in the background, decoupled from
// the webhook acknowledgment. A nil grader disables scoring entirely.
type ScoringService struct {
	dbStore     *store.SQLiteStore
	grader      ResponseGrader
	maxAttempts int
	backoff     time.Duration
	wg          sync.WaitGroup
}

func NewScoringService(db *store.SQLiteStore, grader ResponseGrader) *ScoringService {
	return &ScoringService{
		dbStore:     db,
		grader:      grader,
		maxAttempts: 3,
		backoff:     2 * time.Second,
	}
}

// ScoreAsync schedules grading of a response and returns immediately.
func (s *ScoringService) ScoreAsync(ctx context.Context, responseID int64) {
	if s.grader == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.score(ctx, responseID)
	}()
}

// Wait blocks until all in-flight grading goroutines have finished.
func (s *ScoringService) Wait() {
	s.wg.Wait()
}

func (s *ScoringService) score(ctx context.Context, responseID int64) {
	resp, err := s.dbStore.GetResponseByID(responseID)
	if err != nil {
		log.Printf("Scoring: failed to load response %d: %v", responseID, err)
		return
	}
	if resp.ResponseType != store.ResponseTypeText {
		return // audio is not scored, no transcription in place
	}

	question, err := s.dbStore.GetQuestionByID(resp.QuestionID)
	if err != nil {
		log.Printf("Scoring: failed to load question %d for response %d: %v", resp.QuestionID, responseID, err)
		return
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if attempt > 1 {
			backoff := s.backoff << (attempt - 2)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				log.Printf("Scoring: cancelled while retrying response %d", responseID)
				return
			}
		}

		feedback, score, err := s.grader.GradeResponse(ctx, question, resp.ResponseText)
		if err != nil {
			log.Printf("Scoring: attempt %d/%d failed for response %d: %v", attempt, s.maxAttempts, responseID, err)
			continue
		}

		if err := s.dbStore.UpdateResponseFeedback(responseID, feedback, &score); err != nil {
			log.Printf("Scoring: failed to persist feedback for response %d: %v", responseID, err)
			return
		}
		log.Printf("Scoring: response %d scored %d/10", responseID, score)
		return
	}

	if err := s.dbStore.UpdateResponseFeedback(responseID, terminalFeedback, nil); err != nil {
		log.Printf("Scoring: failed to mark response %d as unavailable: %v", responseID, err)
		return
	}
	log.Printf("Scoring: gave up on response %d after %d attempts", responseID, s.maxAttempts)
}
