package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"

	"otp-service/internal/data/entity"
	"otp-service/internal/dto/request"
	"otp-service/internal/usecase"
	"otp-service/pkg/utils"

	"go.uber.org/zap"
)

// User-facing messages stay generic so responses never reveal whether a
// channel identifier is registered.
const (
	msgChallengeSent  = "If eligible, a verification code has been sent."
	msgTooManySends   = "Too many requests. Try again later."
	msgInvalidCode    = "Code invalid or expired."
	msgTooManyGuesses = "Too many failed attempts. Request a new code."
	msgVerified       = "Verification successful."
)

type OTPHandler struct {
	service usecase.OTPService
	log     *zap.Logger
}

func NewOTPHandler(service usecase.OTPService, log *zap.Logger) *OTPHandler {
	return &OTPHandler{
		service: service,
		log:     log,
	}
}

// RequestChallenge handles POST /api/otp/request
func (h *OTPHandler) RequestChallenge(w http.ResponseWriter, r *http.Request) {
	var req request.RequestChallengeRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	subjectID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	resp, err := h.service.RequestChallenge(r.Context(), subjectID, entity.ChannelKind(req.Channel), req.Identifier)
	if err != nil {
		h.log.Error("Failed to request challenge", zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
		return
	}

	if !resp.Accepted {
		utils.ResponseTooManyRequests(w, msgTooManySends, resp)
		return
	}

	utils.ResponseSuccess(w, msgChallengeSent, resp)
}

// VerifyChallenge handles POST /api/otp/verify
func (h *OTPHandler) VerifyChallenge(w http.ResponseWriter, r *http.Request) {
	var req request.VerifyChallengeRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	subjectID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	resp, err := h.service.VerifyChallenge(r.Context(), subjectID, entity.ChannelKind(req.Channel), req.Identifier, req.Code)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidCandidate) {
			utils.ResponseBadRequest(w, msgInvalidCode, nil)
			return
		}
		h.log.Error("Failed to verify challenge", zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
		return
	}

	if resp.Verified {
		utils.ResponseSuccess(w, msgVerified, resp)
		return
	}

	if resp.Reason == usecase.ReasonLocked {
		utils.ResponseTooManyRequests(w, msgTooManyGuesses, resp)
		return
	}

	// EMPTY, EXPIRED and MISMATCH all collapse into the same message
	utils.ResponseBadRequest(w, msgInvalidCode, resp)
}
