package whatsapp

import (
	"encoding/json"
	"testing"
)

const samplePayload = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "102290129340398",
    "changes": [{
      "field": "messages",
      "value": {
        "messaging_product": "whatsapp",
        "metadata": {"display_phone_number": "15550783881", "phone_number_id": "106540352242922"},
        "contacts": [{"profile": {"name": "Ana"}, "wa_id": "5511988887777"}],
        "messages": [{
          "from": "5511988887777",
          "id": "wamid.HBgLNTUxMTk4ODg4Nzc3NxUCABIYFjNFQjBEMUJF",
          "timestamp": "1756710000",
          "type": "text",
          "text": {"body": "Closures capture their lexical scope."}
        }]
      }
    }]
  }]
}`

func TestWebhookPayloadParsing(t *testing.T) {
	var payload WebhookPayload
	if err := json.Unmarshal([]byte(samplePayload), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	messages := payload.AllMessages()
	if len(messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(messages))
	}
	msg := messages[0]
	if msg.From != "5511988887777" {
		t.Fatalf("From = %q", msg.From)
	}
	if msg.Type != "text" || msg.Text == nil || msg.Text.Body != "Closures capture their lexical scope." {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestAllMessagesEmptyForStatusNotification(t *testing.T) {
	var payload WebhookPayload
	statusOnly := `{"object":"whatsapp_business_account","entry":[{"changes":[{"field":"messages","value":{"statuses":[{"id":"wamid.x"}]}}]}]}`
	if err := json.Unmarshal([]byte(statusOnly), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := payload.AllMessages(); len(got) != 0 {
		t.Fatalf("got %d messages from status notification, want 0", len(got))
	}
}

func TestIsStopCommand(t *testing.T) {
	cases := []struct {
		body string
		want bool
	}{
		{"STOP", true},
		{"stop", true},
		{"StOp", true},
		{"  stop \n", true},
		{"stop please", false},
		{"unstoppable", false},
		{"", false},
	}
	for _, c := range cases {
		if got := IsStopCommand(c.body); got != c.want {
			t.Fatalf("IsStopCommand(%q) = %v, want %v", c.body, got, c.want)
		}
	}
}

func TestMaskNumber(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"+5511999998888", "+551*******888"},
		{"15550783881", "1555****881"},
		{"1234567", "****"},
		{"", "****"},
	}
	for _, c := range cases {
		if got := MaskNumber(c.in); got != c.want {
			t.Fatalf("MaskNumber(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
