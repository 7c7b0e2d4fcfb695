package store

import "time"

// TechArea is the single enumeration of question topics, shared by the
// registration API, the question bank and the seed set.
type TechArea string

const (
	TechAreaJavaScript TechArea = "javascript"
	TechAreaPython     TechArea = "python"
	TechAreaRuby       TechArea = "ruby"
	TechAreaGo         TechArea = "go"
	TechAreaDSA        TechArea = "dsa" // Data Structures & Algorithms
)

func (a TechArea) Valid() bool {
	switch a {
	case TechAreaJavaScript, TechAreaPython, TechAreaRuby, TechAreaGo, TechAreaDSA:
		return true
	}
	return false
}

// Language is the interface language a user receives questions in.
type Language string

const (
	LanguageEnglish    Language = "en"
	LanguageSpanish    Language = "es"
	LanguagePortuguese Language = "pt"
)

func (l Language) Valid() bool {
	switch l {
	case LanguageEnglish, LanguageSpanish, LanguagePortuguese:
		return true
	}
	return false
}

type User struct {
	ID                int64      `json:"id"`
	WhatsAppNumber    string     `json:"whatsapp_number"`
	Name              string     `json:"name"`
	PreferredLanguage Language   `json:"preferred_language"`
	TechArea          TechArea   `json:"tech_area"`
	IsActive          bool       `json:"is_active"`
	CreatedAt         time.Time  `json:"created_at"`
	LastQuestionSent  *time.Time `json:"last_question_sent"`
	// LastQuestionID points at the question the user is expected to answer
	// next. Set together with LastQuestionSent after a confirmed send,
	// cleared once a response is recorded.
	LastQuestionID *int64 `json:"last_question_id"`
}

type Question struct {
	ID               int64     `json:"id"`
	TechArea         TechArea  `json:"tech_area"`
	Difficulty       string    `json:"difficulty"` // "easy", "medium", "hard"
	QuestionTextEN   string    `json:"question_text_en"`
	QuestionTextES   *string   `json:"question_text_es"`
	QuestionTextPT   *string   `json:"question_text_pt"`
	ExpectedConcepts *string   `json:"expected_concepts"`
	CreatedAt        time.Time `json:"created_at"`
}

// Text returns the question in the requested language, falling back to
// English when no translation exists.
func (q *Question) Text(lang Language) string {
	switch lang {
	case LanguageSpanish:
		if q.QuestionTextES != nil && *q.QuestionTextES != "" {
			return *q.QuestionTextES
		}
	case LanguagePortuguese:
		if q.QuestionTextPT != nil && *q.QuestionTextPT != "" {
			return *q.QuestionTextPT
		}
	}
	return q.QuestionTextEN
}

const (
	ResponseTypeText  = "text"
	ResponseTypeAudio = "audio"
)

type Response struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	QuestionID   int64     `json:"question_id"`
	ResponseText string    `json:"response_text"`
	ResponseType string    `json:"response_type"` // "text" or "audio"
	AIFeedback   *string   `json:"ai_feedback"`
	Score        *int      `json:"score"` // 1-10, set by the scoring step
	CreatedAt    time.Time `json:"created_at"`
}
