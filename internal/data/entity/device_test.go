package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const maxAttempts = 5

func activeDevice(now time.Time) *OTPDevice {
	hash := "abc123"
	salt := "salt"
	validUntil := now.Add(5 * time.Minute)
	return &OTPDevice{
		SecretHash: &hash,
		SecretSalt: &salt,
		ValidUntil: &validUntil,
	}
}

func TestStateDerivation(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("empty when no secret", func(t *testing.T) {
		d := &OTPDevice{}
		assert.Equal(t, StateEmpty, d.State(now, maxAttempts))
	})

	t.Run("active while secret valid", func(t *testing.T) {
		d := activeDevice(now)
		assert.Equal(t, StateActive, d.State(now, maxAttempts))
	})

	t.Run("expired at the boundary", func(t *testing.T) {
		d := activeDevice(now)
		at := *d.ValidUntil
		assert.Equal(t, StateExpired, d.State(at, maxAttempts))
		assert.Equal(t, StateExpired, d.State(at.Add(time.Hour), maxAttempts))
	})

	t.Run("locked wins over everything", func(t *testing.T) {
		d := activeDevice(now)
		d.VerifyFailCount = maxAttempts
		assert.Equal(t, StateLocked, d.State(now, maxAttempts))

		// lockout holds even with the secret already cleared
		empty := &OTPDevice{VerifyFailCount: maxAttempts}
		assert.Equal(t, StateLocked, empty.State(now, maxAttempts))
	})
}

func TestIssueResetsFailureCounter(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	d := &OTPDevice{VerifyFailCount: maxAttempts}

	d.Issue("hash", "salt", now, 5*time.Minute)

	assert.Equal(t, StateActive, d.State(now, maxAttempts))
	assert.Zero(t, d.VerifyFailCount)
	assert.Equal(t, now.Add(5*time.Minute), *d.ValidUntil)
}

func TestMarkVerifiedClearsSecretAndConfirms(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	d := activeDevice(now)
	d.VerifyFailCount = 2

	d.MarkVerified()

	assert.Nil(t, d.SecretHash)
	assert.Nil(t, d.SecretSalt)
	assert.Nil(t, d.ValidUntil)
	assert.Zero(t, d.VerifyFailCount)
	assert.True(t, d.Confirmed)
	assert.Equal(t, StateEmpty, d.State(now, maxAttempts))
}

func TestRecordFailureClearsSecretOnLockout(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	d := activeDevice(now)

	for i := 1; i < maxAttempts; i++ {
		locked := d.RecordFailure(maxAttempts)
		assert.False(t, locked)
		assert.NotNil(t, d.SecretHash)
	}

	locked := d.RecordFailure(maxAttempts)
	assert.True(t, locked)
	assert.Nil(t, d.SecretHash)
	assert.Nil(t, d.ValidUntil)
	assert.Equal(t, maxAttempts, d.VerifyFailCount)
	assert.Equal(t, StateLocked, d.State(now, maxAttempts))
}
