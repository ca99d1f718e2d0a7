package usecase

import (
	"context"
	"errors"
	"time"

	"otp-service/internal/data/entity"
	"otp-service/internal/data/repository"
	"otp-service/internal/dto/response"
	"otp-service/internal/notifier"
	"otp-service/pkg/otp"
	"otp-service/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Throttle and verification outcomes. These travel inside the response
// structs; they are results for the caller to branch on, not errors.
const (
	ReasonCooldownPending   = "COOLDOWN_PENDING"
	ReasonWindowCapExceeded = "WINDOW_CAP_EXCEEDED"
	ReasonNoActiveChallenge = "NO_ACTIVE_CHALLENGE"
	ReasonExpired           = "EXPIRED"
	ReasonMismatch          = "MISMATCH"
	ReasonLocked            = "LOCKED"
)

// ErrInvalidCandidate marks a submission rejected before any device state
// was touched: wrong length or non-digit characters.
var ErrInvalidCandidate = errors.New("candidate code is malformed")

// SessionBinder marks the subject's session as having passed the OTP
// factor. Owned by the surrounding auth layer, invoked only after a
// successful verification.
type SessionBinder interface {
	Bind(ctx context.Context, subjectID uuid.UUID) error
}

type OTPService interface {
	RequestChallenge(ctx context.Context, subjectID uuid.UUID, kind entity.ChannelKind, identifier string) (*response.ChallengeResponse, error)
	VerifyChallenge(ctx context.Context, subjectID uuid.UUID, kind entity.ChannelKind, identifier string, candidate string) (*response.VerifyResponse, error)
}

type otpService struct {
	devices   repository.DeviceStore
	binder    SessionBinder
	notifiers *notifier.Registry
	cfg       utils.OTPConfig
	log       *zap.Logger
	now       func() time.Time
}

func NewOTPService(
	devices repository.DeviceStore,
	binder SessionBinder,
	notifiers *notifier.Registry,
	cfg utils.OTPConfig,
	log *zap.Logger,
) OTPService {
	return &otpService{
		devices:   devices,
		binder:    binder,
		notifiers: notifiers,
		cfg:       cfg,
		log:       log.With(zap.String("service", "otp")),
		now:       time.Now,
	}
}

// RequestChallenge evaluates the throttle policy for the device, issues a
// fresh secret when allowed and asks the channel transport to deliver it.
// Delivery happens after the device lock is released; a failing transport
// leaves the issued challenge and throttle state in place so a resend is
// still correctly cooldown-gated.
func (s *otpService) RequestChallenge(
	ctx context.Context,
	subjectID uuid.UUID,
	kind entity.ChannelKind,
	identifier string,
) (*response.ChallengeResponse, error) {
	ttl := time.Duration(s.cfg.TTLSeconds) * time.Second
	cooldown := time.Duration(s.cfg.ResendCooldownSec) * time.Second
	window := time.Duration(s.cfg.SendWindowSec) * time.Second

	var (
		plainCode  string
		accepted   bool
		reason     string
		retryAfter int
	)

	err := s.devices.WithDevice(ctx, subjectID, kind, identifier, func(d *entity.OTPDevice) error {
		now := s.now()

		// 1. Cooldown since the last successful send
		if d.LastSentAt != nil {
			elapsed := now.Sub(*d.LastSentAt)
			if elapsed < cooldown {
				reason = ReasonCooldownPending
				retryAfter = int((cooldown - elapsed).Seconds())
				return nil
			}
		}

		// 2. Rolling window: an elapsed window resets, a full one rejects
		if d.SendWindowStart == nil || now.Sub(*d.SendWindowStart) >= window {
			windowStart := now
			d.SendWindowStart = &windowStart
			d.SendCountInWindow = 0
		} else if d.SendCountInWindow >= s.cfg.MaxSendPerWindow {
			reason = ReasonWindowCapExceeded
			retryAfter = int((window - now.Sub(*d.SendWindowStart)).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}
			return nil
		}

		// 3. Issue the new secret and bump the throttle counters
		code, err := otp.Generate(s.cfg.Length)
		if err != nil {
			return err
		}
		salt, err := otp.NewSalt()
		if err != nil {
			return err
		}

		d.Issue(otp.HashSecret(code, salt, s.cfg.HashIterations), salt, now, ttl)
		sentAt := now
		d.LastSentAt = &sentAt
		d.SendCountInWindow++

		plainCode = code
		accepted = true
		return nil
	})
	if err != nil {
		s.log.Error("Failed to process challenge request",
			zap.Error(err),
			zap.String("subject_id", subjectID.String()),
			zap.String("channel_kind", string(kind)),
		)
		return nil, err
	}

	if !accepted {
		s.log.Info("Challenge request throttled",
			zap.String("subject_id", subjectID.String()),
			zap.String("channel_kind", string(kind)),
			zap.String("reason", reason),
			zap.Int("retry_after_seconds", retryAfter),
		)
		return &response.ChallengeResponse{
			Accepted:          false,
			Reason:            reason,
			RetryAfterSeconds: &retryAfter,
		}, nil
	}

	// Delivery runs outside the device lock. Failure is reported, never
	// rolled back: the challenge stays outstanding and the cooldown holds.
	delivered := true
	transport, err := s.notifiers.ForChannel(kind)
	if err != nil {
		delivered = false
		s.log.Error("No transport for channel", zap.Error(err), zap.String("channel_kind", string(kind)))
	} else if err := transport.Send(ctx, identifier, plainCode, ttl); err != nil {
		delivered = false
		s.log.Warn("Challenge delivery failed",
			zap.Error(err),
			zap.String("subject_id", subjectID.String()),
			zap.String("channel_kind", string(kind)),
		)
	}

	s.log.Info("Challenge issued",
		zap.String("subject_id", subjectID.String()),
		zap.String("channel_kind", string(kind)),
		zap.Bool("delivered", delivered),
	)

	return &response.ChallengeResponse{
		Accepted:  true,
		Delivered: &delivered,
	}, nil
}

// VerifyChallenge checks a candidate against the outstanding secret. The
// lockout gate runs before anything else; EMPTY and EXPIRED devices fail
// without mutating state.
func (s *otpService) VerifyChallenge(
	ctx context.Context,
	subjectID uuid.UUID,
	kind entity.ChannelKind,
	identifier string,
	candidate string,
) (*response.VerifyResponse, error) {
	if !s.validCandidate(candidate) {
		return nil, ErrInvalidCandidate
	}

	var res response.VerifyResponse

	err := s.devices.WithDevice(ctx, subjectID, kind, identifier, func(d *entity.OTPDevice) error {
		now := s.now()

		switch d.State(now, s.cfg.MaxVerifyAttempts) {
		case entity.StateLocked:
			failureCount := d.VerifyFailCount
			res.Reason = ReasonLocked
			res.FailureCount = &failureCount

		case entity.StateEmpty:
			res.Reason = ReasonNoActiveChallenge

		case entity.StateExpired:
			res.Reason = ReasonExpired

		case entity.StateActive:
			if otp.Compare(candidate, *d.SecretSalt, *d.SecretHash, s.cfg.HashIterations) {
				d.MarkVerified()
				res.Verified = true
				break
			}

			lockedNow := d.RecordFailure(s.cfg.MaxVerifyAttempts)
			failureCount := d.VerifyFailCount
			res.FailureCount = &failureCount
			if lockedNow {
				res.Reason = ReasonLocked
			} else {
				res.Reason = ReasonMismatch
			}
		}

		return nil
	})
	if err != nil {
		s.log.Error("Failed to process verification",
			zap.Error(err),
			zap.String("subject_id", subjectID.String()),
			zap.String("channel_kind", string(kind)),
		)
		return nil, err
	}

	if res.Verified {
		if err := s.binder.Bind(ctx, subjectID); err != nil {
			s.log.Error("Failed to bind verified factor to session",
				zap.Error(err),
				zap.String("subject_id", subjectID.String()),
			)
			return nil, err
		}

		s.log.Info("Challenge verified",
			zap.String("subject_id", subjectID.String()),
			zap.String("channel_kind", string(kind)),
		)
	} else {
		s.log.Info("Verification rejected",
			zap.String("subject_id", subjectID.String()),
			zap.String("channel_kind", string(kind)),
			zap.String("reason", res.Reason),
		)
	}

	return &res, nil
}

func (s *otpService) validCandidate(candidate string) bool {
	if len(candidate) != s.cfg.Length {
		return false
	}
	for _, c := range candidate {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
