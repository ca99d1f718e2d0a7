package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"otp-service/pkg/utils"

	"go.uber.org/zap"
)

// SmsNotifier posts codes to an HTTP SMS gateway.
type SmsNotifier struct {
	cfg    utils.SmsConfig
	client *http.Client
	log    *zap.Logger
}

func NewSmsNotifier(cfg utils.SmsConfig, log *zap.Logger) (*SmsNotifier, error) {
	if cfg.GatewayURL == "" {
		return nil, fmt.Errorf("sms gateway url is required")
	}

	return &SmsNotifier{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log.With(zap.String("notifier", "sms")),
	}, nil
}

func (n *SmsNotifier) Send(ctx context.Context, identifier, code string, ttl time.Duration) error {
	payload := map[string]string{
		"to":      identifier,
		"from":    n.cfg.Sender,
		"message": renderMessage(code, ttl),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.GatewayURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+n.cfg.APIKey)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		n.log.Warn("Failed to reach sms gateway", zap.Error(err))
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		n.log.Warn("Sms gateway rejected message", zap.Int("status", resp.StatusCode))
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}

	return nil
}
