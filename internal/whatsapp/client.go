package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL     = "https://graph.facebook.com/v18.0"
	defaultMaxAttempts = 3
	defaultBackoff     = time.Second

	// The Cloud API allows far more, but 20 msg/s keeps a dispatch burst
	// well clear of per-number throughput limits.
	defaultSendRate = 20
)

// ErrUpstream marks provider-side failures (5xx, network errors). Callers
// retry on it; other errors are permanent.
var ErrUpstream = errors.New("whatsapp api failure")

// Client sends messages through the WhatsApp Cloud API.
type Client struct {
	// BaseURL is overridable for tests.
	BaseURL string

	accessToken   string
	phoneNumberID string
	httpClient    *http.Client
	limiter       *rate.Limiter
	maxAttempts   int
	backoff       time.Duration
}

func NewClient(accessToken, phoneNumberID string) *Client {
	return &Client{
		BaseURL:       defaultBaseURL,
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
		httpClient:    &http.Client{Timeout: 15 * time.Second},
		limiter:       rate.NewLimiter(rate.Limit(defaultSendRate), defaultSendRate),
		maxAttempts:   defaultMaxAttempts,
		backoff:       defaultBackoff,
	}
}

type textMessageRequest struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

// SendText delivers a plain text message, retrying transient provider
// failures with exponential backoff. It returns nil only once the provider
// has accepted the message.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	req := textMessageRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
	}
	req.Text.Body = body

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.BaseURL, c.phoneNumberID)

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			backoff := c.backoff << (attempt - 2)
			log.Printf("Retrying WhatsApp send to %s in %s (attempt %d/%d)", MaskNumber(to), backoff, attempt, c.maxAttempts)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		lastErr = c.post(ctx, url, payload)
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, ErrUpstream) {
			return lastErr
		}
	}
	return fmt.Errorf("send to %s failed after %d attempts: %w", MaskNumber(to), c.maxAttempts, lastErr)
}

func (c *Client) post(ctx context.Context, url string, payload []byte) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, respBody)
	}
	return fmt.Errorf("whatsapp api rejected message: status %d: %s", resp.StatusCode, respBody)
}

// MaskNumber hides the middle digits of a phone number for logging.
// "+5511999998888" becomes "+551*******888".
func MaskNumber(number string) string {
	if len(number) <= 7 {
		return "****"
	}
	masked := []byte(number)
	for i := 4; i < len(masked)-3; i++ {
		masked[i] = '*'
	}
	return string(masked)
}
