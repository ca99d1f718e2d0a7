package usecase

import (
	"context"

	"otp-service/internal/data/repository"
	"otp-service/internal/notifier"
	"otp-service/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	OTP OTPService
}

func NewService(repo *repository.Repository, notifiers *notifier.Registry, config *utils.Config, log *zap.Logger) *Service {
	binder := &sessionFactorBinder{sessions: repo.Session}

	return &Service{
		OTP: NewOTPService(repo.Device, binder, notifiers, config.OTP, log),
	}
}

// sessionFactorBinder adapts the session repository to the SessionBinder
// port consumed by the verification gate.
type sessionFactorBinder struct {
	sessions repository.SessionRepository
}

func (b *sessionFactorBinder) Bind(ctx context.Context, subjectID uuid.UUID) error {
	return b.sessions.MarkOTPVerified(ctx, subjectID)
}
