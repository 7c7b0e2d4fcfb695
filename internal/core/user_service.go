package core

import (
	"fmt"
	"log"
	"strings"

	"techprep.io/interview-bot/internal/store"
	"techprep.io/interview-bot/internal/whatsapp"
)

type UserService struct {
	dbStore *store.SQLiteStore
}

func NewUserService(db *store.SQLiteStore) *UserService {
	return &UserService{dbStore: db}
}

type Registration struct {
	WhatsAppNumber    string
	PreferredLanguage string
	TechArea          string
	AgreedToMessages  bool
	Name              string
}

// Register validates a registration and persists the user. Consentless or
// malformed registrations never create a record; a known number returns
// store.ErrConflict.
func (s *UserService) Register(reg Registration) (*store.User, error) {
	log.Printf("New user registration: %s", whatsapp.MaskNumber(reg.WhatsAppNumber))

	if !reg.AgreedToMessages {
		return nil, newValidationError("user must agree to receive messages")
	}

	number := strings.TrimSpace(reg.WhatsAppNumber)
	if number == "" {
		return nil, newValidationError("whatsapp_number is required")
	}
	name := strings.TrimSpace(reg.Name)
	if name == "" {
		return nil, newValidationError("name is required")
	}

	lang := store.Language(reg.PreferredLanguage)
	if !lang.Valid() {
		return nil, newValidationError(fmt.Sprintf("invalid preferred_language %q", reg.PreferredLanguage))
	}
	area := store.TechArea(reg.TechArea)
	if !area.Valid() {
		return nil, newValidationError(fmt.Sprintf("invalid tech_area %q", reg.TechArea))
	}

	user := &store.User{
		WhatsAppNumber:    number,
		Name:              name,
		PreferredLanguage: lang,
		TechArea:          area,
	}
	if err := s.dbStore.CreateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Unsubscribe deactivates a user. Unknown numbers return store.ErrNotFound;
// repeating the call on an already-inactive user succeeds, so the observable
// end state is the same either way.
func (s *UserService) Unsubscribe(whatsappNumber string) error {
	log.Printf("Unsubscribing user: %s", whatsapp.MaskNumber(whatsappNumber))
	return s.dbStore.DeactivateUser(whatsappNumber)
}
