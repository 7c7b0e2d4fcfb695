package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"techprep.io/interview-bot/internal/store"
)

type fakeGrader struct {
	feedback string
	score    int
	err      error
	calls    int
}

func (f *fakeGrader) GradeResponse(ctx context.Context, q *store.Question, answer string) (string, int, error) {
	f.calls++
	if f.err != nil {
		return "", 0, f.err
	}
	return f.feedback, f.score, nil
}

func seedScoringFixture(t *testing.T, s *store.SQLiteStore, responseType string) *store.Response {
	t.Helper()
	concepts := "closure, lexical scope"
	q := &store.Question{
		TechArea:         store.TechAreaJavaScript,
		Difficulty:       "medium",
		QuestionTextEN:   "Explain closures.",
		ExpectedConcepts: &concepts,
	}
	if err := s.CreateQuestion(q); err != nil {
		t.Fatalf("CreateQuestion: %v", err)
	}
	user := &store.User{
		WhatsAppNumber:    "+5511955554444",
		Name:              "Dina",
		PreferredLanguage: store.LanguageEnglish,
		TechArea:          store.TechAreaJavaScript,
	}
	if err := s.CreateUser(user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	resp := &store.Response{
		UserID:       user.ID,
		QuestionID:   q.ID,
		ResponseText: "a function plus its captured environment",
		ResponseType: responseType,
	}
	if err := s.CreateResponse(resp); err != nil {
		t.Fatalf("CreateResponse: %v", err)
	}
	return resp
}

func TestScoringPersistsFeedback(t *testing.T) {
	s := newTestStore(t)
	resp := seedScoringFixture(t, s, store.ResponseTypeText)

	grader := &fakeGrader{feedback: "Solid answer.", score: 9}
	svc := NewScoringService(s, grader)

	svc.ScoreAsync(context.Background(), resp.ID)
	svc.Wait()

	got, err := s.GetResponseByID(resp.ID)
	if err != nil {
		t.Fatalf("GetResponseByID: %v", err)
	}
	if got.AIFeedback == nil || *got.AIFeedback != "Solid answer." {
		t.Fatalf("AIFeedback = %v", got.AIFeedback)
	}
	if got.Score == nil || *got.Score != 9 {
		t.Fatalf("Score = %v, want 9", got.Score)
	}
}

func TestScoringExhaustsRetriesThenTerminal(t *testing.T) {
	s := newTestStore(t)
	resp := seedScoringFixture(t, s, store.ResponseTypeText)

	grader := &fakeGrader{err: errors.New("model overloaded")}
	svc := NewScoringService(s, grader)
	svc.backoff = time.Millisecond

	svc.ScoreAsync(context.Background(), resp.ID)
	svc.Wait()

	if grader.calls != svc.maxAttempts {
		t.Fatalf("grader called %d times, want %d", grader.calls, svc.maxAttempts)
	}

	got, err := s.GetResponseByID(resp.ID)
	if err != nil {
		t.Fatalf("GetResponseByID: %v", err)
	}
	if got.AIFeedback == nil || *got.AIFeedback != terminalFeedback {
		t.Fatalf("AIFeedback = %v, want terminal state", got.AIFeedback)
	}
	if got.Score != nil {
		t.Fatalf("Score = %v in terminal state, want nil", got.Score)
	}
}

func TestScoringSkipsAudioResponses(t *testing.T) {
	s := newTestStore(t)
	resp := seedScoringFixture(t, s, store.ResponseTypeAudio)

	grader := &fakeGrader{feedback: "should not run", score: 5}
	svc := NewScoringService(s, grader)

	svc.ScoreAsync(context.Background(), resp.ID)
	svc.Wait()

	if grader.calls != 0 {
		t.Fatalf("grader called %d times for audio response, want 0", grader.calls)
	}
	got, err := s.GetResponseByID(resp.ID)
	if err != nil {
		t.Fatalf("GetResponseByID: %v", err)
	}
	if got.AIFeedback != nil {
		t.Fatalf("AIFeedback = %v for audio response, want nil", got.AIFeedback)
	}
}

func TestScoringDisabledWithoutGrader(t *testing.T) {
	s := newTestStore(t)
	resp := seedScoringFixture(t, s, store.ResponseTypeText)

	svc := NewScoringService(s, nil)
	svc.ScoreAsync(context.Background(), resp.ID)
	svc.Wait()

	got, err := s.GetResponseByID(resp.ID)
	if err != nil {
		t.Fatalf("GetResponseByID: %v", err)
	}
	if got.AIFeedback != nil || got.Score != nil {
		t.Fatal("response was scored with scoring disabled")
	}
}
