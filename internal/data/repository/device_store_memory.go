package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"otp-service/internal/data/entity"

	"github.com/google/uuid"
)

// MemoryDeviceStore keeps devices in a map with one mutex per device key.
// Same contract as the Postgres store: fn runs with the key held
// exclusively and the mutations are only visible after fn returns nil.
// Used in tests and as a reference for keyed backends.
type MemoryDeviceStore struct {
	mu      sync.Mutex
	devices map[string]*entity.OTPDevice
	locks   map[string]*sync.Mutex
}

func NewMemoryDeviceStore() *MemoryDeviceStore {
	return &MemoryDeviceStore{
		devices: make(map[string]*entity.OTPDevice),
		locks:   make(map[string]*sync.Mutex),
	}
}

func deviceKey(subjectID uuid.UUID, kind entity.ChannelKind, identifier string) string {
	return fmt.Sprintf("%s|%s|%s", subjectID, kind, identifier)
}

func (s *MemoryDeviceStore) keyLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}

func (s *MemoryDeviceStore) WithDevice(
	ctx context.Context,
	subjectID uuid.UUID,
	kind entity.ChannelKind,
	identifier string,
	fn func(device *entity.OTPDevice) error,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := deviceKey(subjectID, kind, identifier)
	lock := s.keyLock(key)

	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	stored, ok := s.devices[key]
	s.mu.Unlock()

	if !ok {
		now := time.Now()
		stored = &entity.OTPDevice{
			BaseNoDelete: entity.BaseNoDelete{
				ID:        uuid.New(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			SubjectID:         subjectID,
			ChannelKind:       kind,
			ChannelIdentifier: identifier,
		}
	}

	// Work on a copy so a failing fn leaves no partial state behind
	working := *stored
	if err := fn(&working); err != nil {
		return err
	}

	working.UpdatedAt = time.Now()

	s.mu.Lock()
	s.devices[key] = &working
	s.mu.Unlock()

	return nil
}

// Snapshot returns a copy of the stored device, or nil if it was never
// touched. Test helper.
func (s *MemoryDeviceStore) Snapshot(subjectID uuid.UUID, kind entity.ChannelKind, identifier string) *entity.OTPDevice {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.devices[deviceKey(subjectID, kind, identifier)]
	if !ok {
		return nil
	}
	snapshot := *stored
	return &snapshot
}
