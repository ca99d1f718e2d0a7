package adaptor

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"otp-service/internal/data/entity"
	"otp-service/internal/dto/response"
	"otp-service/internal/usecase"
	"otp-service/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubOTPService struct {
	challengeResp *response.ChallengeResponse
	verifyResp    *response.VerifyResponse
	err           error

	gotSubject uuid.UUID
	gotKind    entity.ChannelKind
}

func (s *stubOTPService) RequestChallenge(ctx context.Context, subjectID uuid.UUID, kind entity.ChannelKind, identifier string) (*response.ChallengeResponse, error) {
	s.gotSubject = subjectID
	s.gotKind = kind
	return s.challengeResp, s.err
}

func (s *stubOTPService) VerifyChallenge(ctx context.Context, subjectID uuid.UUID, kind entity.ChannelKind, identifier string, candidate string) (*response.VerifyResponse, error) {
	s.gotSubject = subjectID
	s.gotKind = kind
	return s.verifyResp, s.err
}

func newRequest(t *testing.T, path string, body any, subject *uuid.UUID) *http.Request {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	if subject != nil {
		req = req.WithContext(utils.SetUserContext(req.Context(), *subject))
	}
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) utils.Response {
	t.Helper()

	var resp utils.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestRequestChallengeSuccess(t *testing.T) {
	delivered := true
	stub := &stubOTPService{challengeResp: &response.ChallengeResponse{Accepted: true, Delivered: &delivered}}
	handler := NewOTPHandler(stub, zap.NewNop())
	subject := uuid.New()

	req := newRequest(t, "/api/otp/request", map[string]string{
		"channel":    "email",
		"identifier": "user@example.com",
	}, &subject)
	rec := httptest.NewRecorder()

	handler.RequestChallenge(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, subject, stub.gotSubject)
	assert.Equal(t, entity.ChannelEmail, stub.gotKind)

	resp := decodeBody(t, rec)
	assert.True(t, resp.Status)
	assert.Equal(t, msgChallengeSent, resp.Message)
}

func TestRequestChallengeThrottled(t *testing.T) {
	retryAfter := 42
	stub := &stubOTPService{challengeResp: &response.ChallengeResponse{
		Accepted:          false,
		Reason:            usecase.ReasonCooldownPending,
		RetryAfterSeconds: &retryAfter,
	}}
	handler := NewOTPHandler(stub, zap.NewNop())
	subject := uuid.New()

	req := newRequest(t, "/api/otp/request", map[string]string{
		"channel":    "sms",
		"identifier": "+15550001111",
	}, &subject)
	rec := httptest.NewRecorder()

	handler.RequestChallenge(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	resp := decodeBody(t, rec)
	assert.False(t, resp.Status)
	assert.Equal(t, msgTooManySends, resp.Message)
}

func TestRequestChallengeValidation(t *testing.T) {
	stub := &stubOTPService{}
	handler := NewOTPHandler(stub, zap.NewNop())
	subject := uuid.New()

	req := newRequest(t, "/api/otp/request", map[string]string{
		"channel":    "pigeon",
		"identifier": "user@example.com",
	}, &subject)
	rec := httptest.NewRecorder()

	handler.RequestChallenge(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestChallengeRequiresSubject(t *testing.T) {
	stub := &stubOTPService{}
	handler := NewOTPHandler(stub, zap.NewNop())

	req := newRequest(t, "/api/otp/request", map[string]string{
		"channel":    "email",
		"identifier": "user@example.com",
	}, nil)
	rec := httptest.NewRecorder()

	handler.RequestChallenge(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVerifyChallengeSuccess(t *testing.T) {
	stub := &stubOTPService{verifyResp: &response.VerifyResponse{Verified: true}}
	handler := NewOTPHandler(stub, zap.NewNop())
	subject := uuid.New()

	req := newRequest(t, "/api/otp/verify", map[string]string{
		"channel":    "email",
		"identifier": "user@example.com",
		"code":       "123456",
	}, &subject)
	rec := httptest.NewRecorder()

	handler.VerifyChallenge(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody(t, rec)
	assert.True(t, resp.Status)
	assert.Equal(t, msgVerified, resp.Message)
}

func TestVerifyChallengeMismatchStaysGeneric(t *testing.T) {
	failureCount := 2
	stub := &stubOTPService{verifyResp: &response.VerifyResponse{
		Verified:     false,
		Reason:       usecase.ReasonMismatch,
		FailureCount: &failureCount,
	}}
	handler := NewOTPHandler(stub, zap.NewNop())
	subject := uuid.New()

	req := newRequest(t, "/api/otp/verify", map[string]string{
		"channel":    "email",
		"identifier": "user@example.com",
		"code":       "000000",
	}, &subject)
	rec := httptest.NewRecorder()

	handler.VerifyChallenge(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeBody(t, rec)
	assert.Equal(t, msgInvalidCode, resp.Message)
}

func TestVerifyChallengeLocked(t *testing.T) {
	failureCount := 5
	stub := &stubOTPService{verifyResp: &response.VerifyResponse{
		Verified:     false,
		Reason:       usecase.ReasonLocked,
		FailureCount: &failureCount,
	}}
	handler := NewOTPHandler(stub, zap.NewNop())
	subject := uuid.New()

	req := newRequest(t, "/api/otp/verify", map[string]string{
		"channel":    "email",
		"identifier": "user@example.com",
		"code":       "000000",
	}, &subject)
	rec := httptest.NewRecorder()

	handler.VerifyChallenge(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	resp := decodeBody(t, rec)
	assert.Equal(t, msgTooManyGuesses, resp.Message)
}

func TestVerifyChallengeMalformedCode(t *testing.T) {
	stub := &stubOTPService{err: usecase.ErrInvalidCandidate}
	handler := NewOTPHandler(stub, zap.NewNop())
	subject := uuid.New()

	req := newRequest(t, "/api/otp/verify", map[string]string{
		"channel":    "email",
		"identifier": "user@example.com",
		"code":       "9999",
	}, &subject)
	rec := httptest.NewRecorder()

	handler.VerifyChallenge(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeBody(t, rec)
	assert.Equal(t, msgInvalidCode, resp.Message)
}
