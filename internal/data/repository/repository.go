package repository

import (
	"otp-service/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	Device  DeviceStore
	Session SessionRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		Device:  NewDeviceStore(db, log),
		Session: NewSessionRepository(db, log),
	}
}
