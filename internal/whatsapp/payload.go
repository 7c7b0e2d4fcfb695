package whatsapp

import "strings"

// Inbound webhook payload types, following the Cloud API notification schema:
// object -> entry[] -> changes[] -> value -> messages[].

type WebhookPayload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string      `json:"field"`
	Value ChangeValue `json:"value"`
}

type ChangeValue struct {
	MessagingProduct string    `json:"messaging_product"`
	Metadata         Metadata  `json:"metadata"`
	Contacts         []Contact `json:"contacts"`
	Messages         []Message `json:"messages"`
}

type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type Contact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type Message struct {
	ID        string     `json:"id"`
	From      string     `json:"from"`
	Timestamp string     `json:"timestamp"`
	Type      string     `json:"type"` // "text", "audio", ...
	Text      *TextBody  `json:"text,omitempty"`
	Audio     *MediaBody `json:"audio,omitempty"`
}

type TextBody struct {
	Body string `json:"body"`
}

type MediaBody struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
}

// AllMessages flattens the nested payload into the messages it carries.
// Status-only notifications yield an empty slice.
func (p *WebhookPayload) AllMessages() []Message {
	var messages []Message
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			messages = append(messages, change.Value.Messages...)
		}
	}
	return messages
}

// IsStopCommand reports whether an inbound text is the reserved STOP command
// (case-insensitive, surrounding whitespace ignored).
func IsStopCommand(body string) bool {
	return strings.EqualFold(strings.TrimSpace(body), "STOP")
}
