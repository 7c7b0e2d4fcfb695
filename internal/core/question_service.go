package core

import (
	"time"

	"techprep.io/interview-bot/internal/store"
)

type QuestionService struct {
	dbStore *store.SQLiteStore
	now     func() time.Time
	loc     *time.Location
}

func NewQuestionService(db *store.SQLiteStore, loc *time.Location) *QuestionService {
	return &QuestionService{dbStore: db, now: time.Now, loc: loc}
}

// periodStart is the start of the current calendar month: questions a user
// answered on or after this instant are excluded from selection until the
// month rolls over.
func (s *QuestionService) periodStart() time.Time {
	now := s.now().In(s.loc)
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)
}

// PickForArea returns one question in the area uniformly at random, or
// store.ErrNotFound when the area is empty.
func (s *QuestionService) PickForArea(area store.TechArea) (*store.Question, error) {
	return s.dbStore.GetRandomQuestion(area, 0, time.Time{})
}

// PickForUser selects a question in the user's area, excluding anything the
// user already answered this period. store.ErrNotFound means the area is
// exhausted until the period rolls over.
func (s *QuestionService) PickForUser(user *store.User) (*store.Question, error) {
	return s.dbStore.GetRandomQuestion(user.TechArea, user.ID, s.periodStart())
}
