package adaptor

import (
	"otp-service/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	OTP *OTPHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		OTP: NewOTPHandler(service.OTP, log),
	}
}
