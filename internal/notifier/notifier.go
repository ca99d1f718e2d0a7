package notifier

import (
	"context"
	"fmt"
	"time"

	"otp-service/internal/data/entity"
)

// Notifier delivers a plaintext code to a channel identifier. Transport
// failures are returned to the caller; the engine never retries here.
type Notifier interface {
	Send(ctx context.Context, identifier, code string, ttl time.Duration) error
}

// Registry maps channel kinds to their transport.
type Registry struct {
	Email Notifier
	Sms   Notifier
}

func (r *Registry) ForChannel(kind entity.ChannelKind) (Notifier, error) {
	switch kind {
	case entity.ChannelEmail:
		if r.Email == nil {
			return nil, fmt.Errorf("no email notifier configured")
		}
		return r.Email, nil
	case entity.ChannelSms:
		if r.Sms == nil {
			return nil, fmt.Errorf("no sms notifier configured")
		}
		return r.Sms, nil
	default:
		return nil, fmt.Errorf("unknown channel kind: %s", kind)
	}
}

// renderMessage builds the body sent over any channel. Expiry is shown in
// whole minutes, never less than one.
func renderMessage(code string, ttl time.Duration) string {
	minutes := int(ttl.Minutes())
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, minutes)
}
