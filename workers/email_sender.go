package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"earn-service/utils"
)

// Email is one rendered outbound message.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers a rendered e-mail.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

// ResendSender talks to a Resend-compatible HTTP e-mail API.
type ResendSender struct {
	BaseURL    string
	APIKey     string
	From       string
	HTTPClient *http.Client
}

func NewResendSender(baseURL, apiKey, from string) *ResendSender {
	return &ResendSender{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		From:    from,
		HTTPClient: utils.NewHTTPClient(15 * time.Second),
	}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (s *ResendSender) Send(ctx context.Context, e Email) error {
	body, err := json.Marshal(resendRequest{From: s.From, To: []string{e.To}, Subject: e.Subject, HTML: e.HTML})
	if err != nil {
		return fmt.Errorf("encode e-mail: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.APIKey)

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call e-mail API: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("e-mail API returned status %d: %s", resp.StatusCode, string(msg))
	}
	return nil
}
