package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"techprep.io/interview-bot/internal/auth"
	"techprep.io/interview-bot/internal/core"
	"techprep.io/interview-bot/internal/store"
	"techprep.io/interview-bot/internal/whatsapp"
)

const maxWebhookBodySize = 1 << 20 // 1 MiB

type APIHandler struct {
	dbStore  *store.SQLiteStore
	users    *core.UserService
	messages *core.MessageService

	webhookVerifyToken string
	adminAPIKey        string
	jwtSecret          string
}

func NewAPIHandler(db *store.SQLiteStore, users *core.UserService, messages *core.MessageService, webhookVerifyToken, adminAPIKey, jwtSecret string) *APIHandler {
	return &APIHandler{
		dbStore:            db,
		users:              users,
		messages:           messages,
		webhookVerifyToken: webhookVerifyToken,
		adminAPIKey:        adminAPIKey,
		jwtSecret:          jwtSecret,
	}
}

// Liveness

func (h *APIHandler) RootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Interview Bot API is running!",
		"version": "1.0.0",
	})
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "healthy",
		"database": "connected",
	})
}

// User endpoints

type RegisterRequest struct {
	WhatsAppNumber    string `json:"whatsapp_number"`
	PreferredLanguage string `json:"preferred_language"`
	TechArea          string `json:"tech_area"`
	AgreedToMessages  bool   `json:"agreed_to_messages"`
	Name              string `json:"name"`
}

type RegisterResponse struct {
	Message        string `json:"message"`
	WhatsAppNumber string `json:"whatsapp_number"`
	TechArea       string `json:"tech_area"`
	Language       string `json:"language"`
	Name           string `json:"name"`
}

func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationError, "invalid request body")
		return
	}

	user, err := h.users.Register(core.Registration{
		WhatsAppNumber:    req.WhatsAppNumber,
		PreferredLanguage: req.PreferredLanguage,
		TechArea:          req.TechArea,
		AgreedToMessages:  req.AgreedToMessages,
		Name:              req.Name,
	})
	if err != nil {
		renderError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, RegisterResponse{
		Message:        "User registered successfully",
		WhatsAppNumber: user.WhatsAppNumber,
		TechArea:       string(user.TechArea),
		Language:       string(user.PreferredLanguage),
		Name:           user.Name,
	})
}

func (h *APIHandler) UnsubscribeHandler(w http.ResponseWriter, r *http.Request) {
	whatsappNumber := chi.URLParam(r, "whatsappNumber")
	if err := h.users.Unsubscribe(whatsappNumber); err != nil {
		renderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User unsubscribed successfully"})
}

// Webhook endpoints

// VerifyWebhookHandler answers the provider's challenge-response handshake.
// The challenge must be echoed back verbatim as plain text.
func (h *APIHandler) VerifyWebhookHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	mode := query.Get("hub.mode")
	challenge := query.Get("hub.challenge")
	verifyToken := query.Get("hub.verify_token")

	if mode == "subscribe" && verifyToken != "" &&
		subtle.ConstantTimeCompare([]byte(verifyToken), []byte(h.webhookVerifyToken)) == 1 {
		log.Println("Webhook verified successfully")
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(challenge))
		return
	}

	log.Println("Webhook verification failed")
	writeError(w, http.StatusForbidden, codeForbidden, "verification failed")
}

// ReceiveWebhookHandler acknowledges inbound notifications with 200 before
// any processing happens. The provider retries on non-2xx, which cannot fix
// an internal fault, so failures stay internal.
func (h *APIHandler) ReceiveWebhookHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodySize))
	if err != nil {
		log.Printf("Failed to read webhook body: %v", err)
		writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
		return
	}

	var payload whatsapp.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Printf("Failed to parse webhook payload: %v", err)
		writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
		return
	}

	// The request context dies with the 200 below; processing must outlive it.
	go h.messages.ProcessPayload(context.WithoutCancel(r.Context()), &payload)

	writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
}

// Admin endpoints

type AdminLoginRequest struct {
	APIKey string `json:"api_key"`
}

func (h *APIHandler) AdminLoginHandler(w http.ResponseWriter, r *http.Request) {
	var req AdminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationError, "invalid request body")
		return
	}

	if h.adminAPIKey == "" || h.jwtSecret == "" ||
		subtle.ConstantTimeCompare([]byte(req.APIKey), []byte(h.adminAPIKey)) != 1 {
		writeError(w, http.StatusForbidden, codeForbidden, "invalid api key")
		return
	}

	token, err := auth.GenerateJWT(h.jwtSecret, "admin")
	if err != nil {
		renderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *APIHandler) AdminAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.jwtSecret == "" {
			writeError(w, http.StatusForbidden, codeForbidden, "admin api disabled")
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusForbidden, codeForbidden, "authorization header is required")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if _, err := auth.ValidateJWT(h.jwtSecret, tokenString); err != nil {
			writeError(w, http.StatusForbidden, codeForbidden, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type CreateQuestionRequest struct {
	TechArea         string  `json:"tech_area"`
	Difficulty       string  `json:"difficulty"`
	QuestionTextEN   string  `json:"question_text_en"`
	QuestionTextES   *string `json:"question_text_es"`
	QuestionTextPT   *string `json:"question_text_pt"`
	ExpectedConcepts *string `json:"expected_concepts"`
}

func (h *APIHandler) AdminCreateQuestionHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationError, "invalid request body")
		return
	}

	area := store.TechArea(req.TechArea)
	if !area.Valid() {
		writeError(w, http.StatusBadRequest, codeValidationError, "invalid tech_area")
		return
	}
	if strings.TrimSpace(req.QuestionTextEN) == "" {
		writeError(w, http.StatusBadRequest, codeValidationError, "question_text_en is required")
		return
	}
	if req.Difficulty == "" {
		req.Difficulty = "medium"
	}

	q := store.Question{
		TechArea:         area,
		Difficulty:       req.Difficulty,
		QuestionTextEN:   req.QuestionTextEN,
		QuestionTextES:   req.QuestionTextES,
		QuestionTextPT:   req.QuestionTextPT,
		ExpectedConcepts: req.ExpectedConcepts,
	}
	if err := h.dbStore.CreateQuestion(&q); err != nil {
		renderError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (h *APIHandler) AdminListQuestionsHandler(w http.ResponseWriter, r *http.Request) {
	var (
		questions []store.Question
		err       error
	)
	if areaParam := r.URL.Query().Get("tech_area"); areaParam != "" {
		area := store.TechArea(areaParam)
		if !area.Valid() {
			writeError(w, http.StatusBadRequest, codeValidationError, "invalid tech_area")
			return
		}
		questions, err = h.dbStore.GetQuestionsByArea(area)
	} else {
		questions, err = h.dbStore.ListQuestions()
	}
	if err != nil {
		renderError(w, err)
		return
	}
	if questions == nil {
		questions = []store.Question{}
	}
	writeJSON(w, http.StatusOK, questions)
}

type AdminUser struct {
	ID                int64  `json:"id"`
	WhatsAppNumber    string `json:"whatsapp_number"`
	Name              string `json:"name"`
	PreferredLanguage string `json:"preferred_language"`
	TechArea          string `json:"tech_area"`
	IsActive          bool   `json:"is_active"`
}

func (h *APIHandler) AdminListUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.dbStore.ListUsers()
	if err != nil {
		renderError(w, err)
		return
	}

	out := make([]AdminUser, 0, len(users))
	for _, u := range users {
		out = append(out, AdminUser{
			ID:                u.ID,
			WhatsAppNumber:    whatsapp.MaskNumber(u.WhatsAppNumber),
			Name:              u.Name,
			PreferredLanguage: string(u.PreferredLanguage),
			TechArea:          string(u.TechArea),
			IsActive:          u.IsActive,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
