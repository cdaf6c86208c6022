package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/payperplay/mcwatch/internal/models"
	"github.com/payperplay/mcwatch/pkg/logger"
)

// maxWebhookPayload bounds the attachment size accepted for relaying
const maxWebhookPayload = 1 << 20

// WebhookService relays uploaded JSON messages to Discord webhooks
type WebhookService struct {
	httpClient *http.Client
}

// NewWebhookService creates a new webhook relay
func NewWebhookService() *WebhookService {
	return &WebhookService{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewWebhookServiceWithClient uses a custom http client (tests)
func NewWebhookServiceWithClient(client *http.Client) *WebhookService {
	return &WebhookService{httpClient: client}
}

// ValidatePayload checks that data is a webhook message with some content
func ValidatePayload(data []byte) (*models.DiscordWebhookPayload, error) {
	if len(data) == 0 || len(data) > maxWebhookPayload {
		return nil, ErrInvalidPayload
	}

	var payload models.DiscordWebhookPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if payload.Content == "" && len(payload.Embeds) == 0 {
		return nil, fmt.Errorf("%w: no content or embeds", ErrInvalidPayload)
	}
	return &payload, nil
}

// Relay posts the raw payload to webhookURL after validating it. Unknown
// fields in the payload are forwarded untouched.
func (s *WebhookService) Relay(ctx context.Context, webhookURL string, data []byte) error {
	parsed, err := url.Parse(webhookURL)
	if err != nil || (parsed.Scheme != "https" && parsed.Scheme != "http") || parsed.Host == "" {
		return fmt.Errorf("invalid webhook url")
	}

	if _, err := ValidatePayload(data); err != nil {
		return err
	}

	if err := s.sendWebhook(ctx, webhookURL, data); err != nil {
		logger.Warn("Webhook relay failed", map[string]interface{}{
			"host":  parsed.Host,
			"error": err.Error(),
		})
		return err
	}

	logger.Info("Webhook relayed", map[string]interface{}{
		"host": parsed.Host,
	})
	return nil
}

// RelayAttachment downloads an uploaded JSON file and relays it
func (s *WebhookService) RelayAttachment(ctx context.Context, webhookURL, attachmentURL string) error {
	data, err := s.fetch(ctx, attachmentURL)
	if err != nil {
		return err
	}
	return s.Relay(ctx, webhookURL, data)
}

func (s *WebhookService) fetch(ctx context.Context, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download attachment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("attachment download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxWebhookPayload+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}
	if len(data) > maxWebhookPayload {
		return nil, fmt.Errorf("%w: attachment too large", ErrInvalidPayload)
	}
	return data, nil
}

// sendWebhook sends a webhook payload to Discord
func (s *WebhookService) sendWebhook(ctx context.Context, webhookURL string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
