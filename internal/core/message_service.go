package core

import (
	"context"
	"errors"
	"log"

	"techprep.io/interview-bot/internal/store"
	"techprep.io/interview-bot/internal/whatsapp"
)

// MessageService processes inbound webhook payloads: STOP commands are routed
// to unsubscription, everything else is treated as an answer to the sender's
// pending question. It runs after the webhook has already been acknowledged,
// so every failure is handled internally.
type MessageService struct {
	dbStore *store.SQLiteStore
	users   *UserService
	scoring *ScoringService
}

func NewMessageService(db *store.SQLiteStore, users *UserService, scoring *ScoringService) *MessageService {
	return &MessageService{dbStore: db, users: users, scoring: scoring}
}

func (s *MessageService) ProcessPayload(ctx context.Context, payload *whatsapp.WebhookPayload) {
	for _, msg := range payload.AllMessages() {
		s.handleMessage(ctx, msg)
	}
}

func (s *MessageService) handleMessage(ctx context.Context, msg whatsapp.Message) {
	masked := whatsapp.MaskNumber(msg.From)

	user, err := s.dbStore.GetUserByNumber(msg.From)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("Inbound message %s from unregistered number %s, ignoring", msg.ID, masked)
		} else {
			log.Printf("Inbound message %s: failed to resolve sender %s: %v", msg.ID, masked, err)
		}
		return
	}

	if msg.Type == "text" && msg.Text != nil && whatsapp.IsStopCommand(msg.Text.Body) {
		if err := s.users.Unsubscribe(msg.From); err != nil {
			log.Printf("Inbound STOP from %s: unsubscribe failed: %v", masked, err)
		}
		return
	}

	s.recordAnswer(ctx, user, msg)
}

func (s *MessageService) recordAnswer(ctx context.Context, user *store.User, msg whatsapp.Message) {
	masked := whatsapp.MaskNumber(msg.From)

	if user.LastQuestionID == nil {
		log.Printf("Answer from %s with no pending question, dropping", masked)
		return
	}

	resp := store.Response{
		UserID:     user.ID,
		QuestionID: *user.LastQuestionID,
	}
	switch msg.Type {
	case "text":
		if msg.Text == nil || msg.Text.Body == "" {
			log.Printf("Empty text message %s from %s, dropping", msg.ID, masked)
			return
		}
		resp.ResponseType = store.ResponseTypeText
		resp.ResponseText = msg.Text.Body
	case "audio":
		if msg.Audio == nil {
			log.Printf("Audio message %s from %s without media, dropping", msg.ID, masked)
			return
		}
		// The media ID is kept so the recording can be fetched later.
		resp.ResponseType = store.ResponseTypeAudio
		resp.ResponseText = msg.Audio.ID
	default:
		log.Printf("Unsupported message type %q from %s, dropping", msg.Type, masked)
		return
	}

	if err := s.dbStore.CreateResponse(&resp); err != nil {
		log.Printf("Failed to record answer from %s: %v", masked, err)
		return
	}
	if err := s.dbStore.ClearPendingQuestion(user.ID); err != nil {
		log.Printf("Failed to clear pending question for %s: %v", masked, err)
	}
	log.Printf("Recorded %s answer %d from %s for question %d", resp.ResponseType, resp.ID, masked, resp.QuestionID)

	s.scoring.ScoreAsync(ctx, resp.ID)
}
