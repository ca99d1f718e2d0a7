package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"otp-service/internal/data/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithDeviceCreatesLazily(t *testing.T) {
	store := NewMemoryDeviceStore()
	subject := uuid.New()

	err := store.WithDevice(context.Background(), subject, entity.ChannelEmail, "a@b.com", func(d *entity.OTPDevice) error {
		assert.Equal(t, subject, d.SubjectID)
		assert.Equal(t, entity.ChannelEmail, d.ChannelKind)
		assert.Equal(t, "a@b.com", d.ChannelIdentifier)
		assert.Nil(t, d.SecretHash)
		d.SendCountInWindow = 1
		return nil
	})
	require.NoError(t, err)

	device := store.Snapshot(subject, entity.ChannelEmail, "a@b.com")
	require.NotNil(t, device)
	assert.Equal(t, 1, device.SendCountInWindow)
}

func TestWithDeviceDiscardsMutationsOnError(t *testing.T) {
	store := NewMemoryDeviceStore()
	subject := uuid.New()

	require.NoError(t, store.WithDevice(context.Background(), subject, entity.ChannelEmail, "a@b.com", func(d *entity.OTPDevice) error {
		d.VerifyFailCount = 1
		return nil
	}))

	boom := errors.New("boom")
	err := store.WithDevice(context.Background(), subject, entity.ChannelEmail, "a@b.com", func(d *entity.OTPDevice) error {
		d.VerifyFailCount = 99
		return boom
	})
	assert.ErrorIs(t, err, boom)

	device := store.Snapshot(subject, entity.ChannelEmail, "a@b.com")
	require.NotNil(t, device)
	assert.Equal(t, 1, device.VerifyFailCount)
}

func TestWithDeviceSerializesPerKey(t *testing.T) {
	store := NewMemoryDeviceStore()
	subject := uuid.New()

	const workers = 50

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.WithDevice(context.Background(), subject, entity.ChannelEmail, "a@b.com", func(d *entity.OTPDevice) error {
				d.VerifyFailCount++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	device := store.Snapshot(subject, entity.ChannelEmail, "a@b.com")
	require.NotNil(t, device)
	assert.Equal(t, workers, device.VerifyFailCount)
}

func TestWithDeviceRespectsCancelledContext(t *testing.T) {
	store := NewMemoryDeviceStore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.WithDevice(ctx, uuid.New(), entity.ChannelEmail, "a@b.com", func(d *entity.OTPDevice) error {
		t.Fatal("fn must not run on cancelled context")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDistinctKeysDistinctDevices(t *testing.T) {
	store := NewMemoryDeviceStore()
	subject := uuid.New()

	require.NoError(t, store.WithDevice(context.Background(), subject, entity.ChannelEmail, "a@b.com", func(d *entity.OTPDevice) error {
		d.SendCountInWindow = 1
		return nil
	}))
	require.NoError(t, store.WithDevice(context.Background(), subject, entity.ChannelSms, "+15550001111", func(d *entity.OTPDevice) error {
		assert.Zero(t, d.SendCountInWindow)
		return nil
	}))
}
