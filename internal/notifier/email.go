package notifier

import (
	"context"
	"fmt"
	"time"

	"otp-service/pkg/utils"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

const emailSubject = "Your verification code"

// EmailNotifier sends codes over SMTP using go-mail.
type EmailNotifier struct {
	cfg utils.EmailConfig
	log *zap.Logger
}

func NewEmailNotifier(cfg utils.EmailConfig, log *zap.Logger) (*EmailNotifier, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("email from address is required")
	}

	return &EmailNotifier{
		cfg: cfg,
		log: log.With(zap.String("notifier", "email")),
	}, nil
}

func (n *EmailNotifier) Send(ctx context.Context, identifier, code string, ttl time.Duration) error {
	msg := mail.NewMsg()

	if n.cfg.FromName != "" {
		if err := msg.FromFormat(n.cfg.FromName, n.cfg.From); err != nil {
			return fmt.Errorf("set from address: %w", err)
		}
	} else {
		if err := msg.From(n.cfg.From); err != nil {
			return fmt.Errorf("set from address: %w", err)
		}
	}

	if err := msg.To(identifier); err != nil {
		return fmt.Errorf("set to address: %w", err)
	}

	msg.Subject(emailSubject)
	msg.SetBodyString(mail.TypeTextPlain, renderMessage(code, ttl))

	opts := []mail.Option{
		mail.WithPort(n.cfg.Port),
	}

	if n.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		// Implicit TLS for 465, STARTTLS otherwise
		if n.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if n.cfg.User != "" && n.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(n.cfg.User),
			mail.WithPassword(n.cfg.Password),
		)
	}

	client, err := mail.NewClient(n.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		n.log.Warn("Failed to send OTP email", zap.Error(err))
		return fmt.Errorf("send otp email: %w", err)
	}

	return nil
}
