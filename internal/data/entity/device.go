package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChannelKind string

const (
	ChannelEmail ChannelKind = "email"
	ChannelSms   ChannelKind = "sms"
)

func (k ChannelKind) Valid() bool {
	return k == ChannelEmail || k == ChannelSms
}

// DeviceState is derived from the stored fields, there is no status column.
type DeviceState string

const (
	StateEmpty   DeviceState = "empty"
	StateActive  DeviceState = "active"
	StateExpired DeviceState = "expired"
	StateLocked  DeviceState = "locked"
)

// OTPDevice binds one subject to one channel identifier and tracks the
// outstanding challenge, throttle counters and failure counter for it.
// One row per (subject_id, channel_kind, channel_identifier).
type OTPDevice struct {
	BaseNoDelete
	SubjectID         uuid.UUID   `db:"subject_id"`
	ChannelKind       ChannelKind `db:"channel_kind"`
	ChannelIdentifier string      `db:"channel_identifier"`

	// SecretHash and SecretSalt are set iff a challenge is outstanding.
	// ValidUntil is nil exactly when SecretHash is nil.
	SecretHash *string    `db:"secret_hash"`
	SecretSalt *string    `db:"secret_salt"`
	ValidUntil *time.Time `db:"valid_until"`

	LastSentAt        *time.Time `db:"last_sent_at"`
	SendWindowStart   *time.Time `db:"send_window_start"`
	SendCountInWindow int        `db:"send_count_in_window"`

	VerifyFailCount int  `db:"verify_fail_count"`
	Confirmed       bool `db:"confirmed"`
}

// State derives the machine state at the given instant. The lockout check
// comes first: an exhausted counter blocks verification even before the
// outstanding secret is cleared.
func (d *OTPDevice) State(now time.Time, maxVerifyAttempts int) DeviceState {
	if d.VerifyFailCount >= maxVerifyAttempts {
		return StateLocked
	}
	if d.SecretHash == nil || d.ValidUntil == nil {
		return StateEmpty
	}
	if !now.Before(*d.ValidUntil) {
		return StateExpired
	}
	return StateActive
}

// Issue installs a fresh hashed secret and resets the failure counter.
func (d *OTPDevice) Issue(hash, salt string, now time.Time, ttl time.Duration) {
	validUntil := now.Add(ttl)
	d.SecretHash = &hash
	d.SecretSalt = &salt
	d.ValidUntil = &validUntil
	d.VerifyFailCount = 0
}

// MarkVerified runs the success transition: secret cleared, counter reset,
// channel flagged as confirmed at least once.
func (d *OTPDevice) MarkVerified() {
	d.clearSecret()
	d.VerifyFailCount = 0
	d.Confirmed = true
}

// RecordFailure increments the failure counter. Crossing the configured
// maximum also clears the secret so no further guesses are possible without
// a new challenge. Returns true when this failure caused the lockout.
func (d *OTPDevice) RecordFailure(maxVerifyAttempts int) bool {
	d.VerifyFailCount++
	if d.VerifyFailCount >= maxVerifyAttempts {
		d.clearSecret()
		return true
	}
	return false
}

func (d *OTPDevice) clearSecret() {
	d.SecretHash = nil
	d.SecretSalt = nil
	d.ValidUntil = nil
}
