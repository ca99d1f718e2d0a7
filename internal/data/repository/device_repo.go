package repository

import (
	"context"
	"fmt"
	"time"

	"otp-service/internal/data/entity"
	"otp-service/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DeviceStore serializes all reads and writes for one
// (subject, channel kind, channel identifier) device. WithDevice loads the
// row under an exclusive lock (creating it on first use), runs fn against
// it and persists every mutable field in the same transaction. If fn
// returns an error nothing is committed.
//
// Unrelated devices are never contended: the lock is scoped to the unique
// key, not the table.
type DeviceStore interface {
	WithDevice(
		ctx context.Context,
		subjectID uuid.UUID,
		kind entity.ChannelKind,
		identifier string,
		fn func(device *entity.OTPDevice) error,
	) error
}

type deviceStore struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewDeviceStore(db database.PgxIface, log *zap.Logger) DeviceStore {
	return &deviceStore{
		db:  db,
		log: log.With(zap.String("repository", "otp_device")),
	}
}

func (r *deviceStore) WithDevice(
	ctx context.Context,
	subjectID uuid.UUID,
	kind entity.ChannelKind,
	identifier string,
	fn func(device *entity.OTPDevice) error,
) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.log.Error("Failed to begin device transaction", zap.Error(err))
		return fmt.Errorf("begin device transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()

	// Lazy creation. DO NOTHING keeps the counters of an existing row; the
	// SELECT ... FOR UPDATE below takes the row lock either way.
	insertQuery := `
		INSERT INTO otp_devices (id, subject_id, channel_kind, channel_identifier,
		                         send_count_in_window, verify_fail_count, confirmed,
		                         created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, 0, false, $5, $5)
		ON CONFLICT (subject_id, channel_kind, channel_identifier) DO NOTHING
	`

	if _, err := tx.Exec(ctx, insertQuery, uuid.New(), subjectID, kind, identifier, now); err != nil {
		r.log.Error("Failed to ensure device row",
			zap.Error(err),
			zap.String("subject_id", subjectID.String()),
			zap.String("channel_kind", string(kind)),
		)
		return fmt.Errorf("ensure device row: %w", err)
	}

	selectQuery := `
		SELECT id, subject_id, channel_kind, channel_identifier,
		       secret_hash, secret_salt, valid_until,
		       last_sent_at, send_window_start, send_count_in_window,
		       verify_fail_count, confirmed, created_at, updated_at
		FROM otp_devices
		WHERE subject_id = $1 AND channel_kind = $2 AND channel_identifier = $3
		FOR UPDATE
	`

	var device entity.OTPDevice
	err = tx.QueryRow(ctx, selectQuery, subjectID, kind, identifier).Scan(
		&device.ID,
		&device.SubjectID,
		&device.ChannelKind,
		&device.ChannelIdentifier,
		&device.SecretHash,
		&device.SecretSalt,
		&device.ValidUntil,
		&device.LastSentAt,
		&device.SendWindowStart,
		&device.SendCountInWindow,
		&device.VerifyFailCount,
		&device.Confirmed,
		&device.CreatedAt,
		&device.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to lock device row",
			zap.Error(err),
			zap.String("subject_id", subjectID.String()),
			zap.String("channel_kind", string(kind)),
		)
		return fmt.Errorf("lock device row: %w", err)
	}

	if err := fn(&device); err != nil {
		return err
	}

	updateQuery := `
		UPDATE otp_devices
		SET secret_hash = $1, secret_salt = $2, valid_until = $3,
		    last_sent_at = $4, send_window_start = $5, send_count_in_window = $6,
		    verify_fail_count = $7, confirmed = $8, updated_at = $9
		WHERE id = $10
	`

	if _, err := tx.Exec(ctx, updateQuery,
		device.SecretHash,
		device.SecretSalt,
		device.ValidUntil,
		device.LastSentAt,
		device.SendWindowStart,
		device.SendCountInWindow,
		device.VerifyFailCount,
		device.Confirmed,
		time.Now(),
		device.ID,
	); err != nil {
		r.log.Error("Failed to persist device",
			zap.Error(err),
			zap.String("device_id", device.ID.String()),
		)
		return fmt.Errorf("persist device: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit device transaction: %w", err)
	}

	return nil
}
