package core

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"techprep.io/interview-bot/internal/store"
	"techprep.io/interview-bot/internal/whatsapp"
)

// Sender delivers an outbound message and returns nil only after the
// provider has accepted it. *whatsapp.Client is the production
// implementation.
type Sender interface {
	SendText(ctx context.Context, to, body string) error
}

// Dispatcher is the daily-question loop. It shares nothing with the request
// path except the store: the guard against double sends is the persisted
// last_question_sent timestamp, written only after a confirmed send.
type Dispatcher struct {
	dbStore   *store.SQLiteStore
	questions *QuestionService
	sender    Sender

	hour time.Duration // offset into the local day, e.g. 9h for 09:00
	loc  *time.Location
	now  func() time.Time

	maxConcurrent int
	tickInterval  time.Duration
}

func NewDispatcher(db *store.SQLiteStore, questions *QuestionService, sender Sender, dailyHour int, loc *time.Location) *Dispatcher {
	return &Dispatcher{
		dbStore:       db,
		questions:     questions,
		sender:        sender,
		hour:          time.Duration(dailyHour) * time.Hour,
		loc:           loc,
		now:           time.Now,
		maxConcurrent: 4,
		tickInterval:  time.Minute,
	}
}

// Run ticks once a minute until the context is cancelled. Each tick is a
// no-op before the configured hour or for users already served today.
func (d *Dispatcher) Run(ctx context.Context) {
	log.Printf("Dispatcher started (daily hour %d, timezone %s)", int(d.hour.Hours()), d.loc)
	ticker := time.NewTicker(d.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Dispatcher stopped")
			return
		case <-ticker.C:
			if _, err := d.DispatchOnce(ctx); err != nil {
				log.Printf("Dispatch run failed: %v", err)
			}
		}
	}
}

// DispatchOnce sends today's question to every active user who has not
// received one since today's scheduled time. It returns the number of
// confirmed sends.
func (d *Dispatcher) DispatchOnce(ctx context.Context) (int, error) {
	now := d.now().In(d.loc)
	scheduled := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, d.loc).Add(d.hour)
	if now.Before(scheduled) {
		return 0, nil
	}

	users, err := d.dbStore.GetActiveUsers()
	if err != nil {
		return 0, err
	}

	due := make([]store.User, 0, len(users))
	for _, user := range users {
		if user.LastQuestionSent != nil && !user.LastQuestionSent.In(d.loc).Before(scheduled) {
			continue // already served today
		}
		due = append(due, user)
	}
	if len(due) == 0 {
		return 0, nil
	}

	runID := uuid.NewString()[:8]
	log.Printf("Dispatch run %s: %d users due", runID, len(due))

	sem := make(chan struct{}, d.maxConcurrent)
	var wg sync.WaitGroup
	var sent atomic.Int64
	for _, user := range due {
		if ctx.Err() != nil {
			break // cancelled mid-run, users not yet started stay unserved
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(user store.User) {
			defer wg.Done()
			defer func() { <-sem }()
			if d.sendToUser(ctx, runID, &user) {
				sent.Add(1)
			}
		}(user)
	}
	wg.Wait()

	count := int(sent.Load())
	log.Printf("Dispatch run %s: %d/%d sends confirmed", runID, count, len(due))
	return count, ctx.Err()
}

func (d *Dispatcher) sendToUser(ctx context.Context, runID string, user *store.User) bool {
	masked := whatsapp.MaskNumber(user.WhatsAppNumber)

	question, err := d.questions.PickForUser(user)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("Dispatch run %s: no unanswered %s questions left for %s this period, skipping", runID, user.TechArea, masked)
		} else {
			log.Printf("Dispatch run %s: question selection failed for %s: %v", runID, masked, err)
		}
		return false
	}

	if err := d.sender.SendText(ctx, user.WhatsAppNumber, question.Text(user.PreferredLanguage)); err != nil {
		log.Printf("Dispatch run %s: send to %s failed: %v", runID, masked, err)
		return false
	}

	// The timestamp moves only after the provider confirmed acceptance, so
	// an aborted run never marks a user as served.
	if err := d.dbStore.SetLastQuestion(user.ID, question.ID, d.now()); err != nil {
		log.Printf("Dispatch run %s: failed to record send to %s: %v", runID, masked, err)
		return false
	}
	log.Printf("Dispatch run %s: question %d sent to %s", runID, question.ID, masked)
	return true
}
