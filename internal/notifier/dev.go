package notifier

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DevNotifier logs the code instead of delivering it. Wired in when the
// transport for a channel is not configured, so local development works
// without an SMTP server or SMS gateway.
type DevNotifier struct {
	log *zap.Logger
}

func NewDevNotifier(log *zap.Logger) *DevNotifier {
	return &DevNotifier{log: log.With(zap.String("notifier", "dev"))}
}

func (n *DevNotifier) Send(ctx context.Context, identifier, code string, ttl time.Duration) error {
	n.log.Info("OTP generated (dev delivery)",
		zap.String("identifier", identifier),
		zap.String("code", code),
		zap.Duration("ttl", ttl),
	)
	return nil
}
