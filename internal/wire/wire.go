package wire

import (
	"net/http"

	"otp-service/internal/adaptor"
	"otp-service/internal/data/repository"
	"otp-service/internal/notifier"
	"otp-service/internal/usecase"
	"otp-service/pkg/middleware"
	"otp-service/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// App holds the wired dependencies
type App struct {
	Router *chi.Mux
}

// Wiring initializes services, handlers and the router
func Wiring(repo *repository.Repository, notifiers *notifier.Registry, config *utils.Config, logger *zap.Logger) *App {
	service := usecase.NewService(repo, notifiers, config, logger)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, repo, logger)

	return &App{
		Router: router,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	repo *repository.Repository,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	wireOTP(r, handler.OTP, repo, logger)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}

func wireOTP(
	r chi.Router,
	otpHandler *adaptor.OTPHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// Both endpoints need an authenticated session; the subject always
	// comes from the session, never from the payload.
	auth := middleware.AuthSession(repo.Session, log)

	r.With(auth).Post("/api/otp/request", otpHandler.RequestChallenge)
	r.With(auth).Post("/api/otp/verify", otpHandler.VerifyChallenge)
}
