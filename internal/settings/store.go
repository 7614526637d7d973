package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/adforge/core/internal/capability"
	apperrors "github.com/adforge/core/internal/shared/errors"
	"github.com/adforge/core/internal/shared/logger"
)

// Listener receives the full snapshot after every successful mutation.
type Listener func(Snapshot)

type subscriber struct {
	id int
	fn Listener
}

// Store holds the live settings snapshot and persists it through a Blob.
// It is an explicit, constructed dependency: tests and parallel studios
// each get their own isolated store.
type Store struct {
	mu   sync.Mutex
	blob Blob
	log  *logger.Logger

	snap   Snapshot
	subs   []subscriber
	nextID int
}

// NewStore creates a store and loads the persisted record. Load never
// fails: on a missing or unparseable blob the store starts from defaults.
func NewStore(blob Blob, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	s := &Store{blob: blob, log: log}
	s.snap = s.load()
	return s
}

func (s *Store) load() Snapshot {
	data, err := s.blob.Load()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("settings blob unreadable, using defaults", logger.Err(err))
		}
		return DefaultSnapshot()
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.log.Warn("settings blob unparseable, using defaults", logger.Err(err))
		return DefaultSnapshot()
	}
	return snap
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

// Credential implements capability.CredentialSource.
func (s *Store) Credential(id capability.ProviderID) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.snap.Credentials[id]
	return v, ok
}

// Selected returns the selected provider for a capability domain. Both
// speech capabilities resolve through the same fixed defaults as the text
// selection is irrelevant to them, so only text/image/video are selectable.
func (s *Store) Selected(cap capability.Capability) (capability.ProviderID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch cap {
	case capability.CapabilityText:
		return s.snap.SelectedTextProvider, true
	case capability.CapabilityImage:
		return s.snap.SelectedImageProvider, true
	case capability.CapabilityVideo:
		return s.snap.SelectedVideoProvider, true
	default:
		return "", false
	}
}

// UpdateCredential validates and stores a credential, persists the record
// and notifies subscribers. Invalid credentials are rejected without
// mutation or notification. The stored value is the trimmed key: pasted
// keys often carry surrounding whitespace, which would otherwise end up
// verbatim in every Authorization header.
func (s *Store) UpdateCredential(id capability.ProviderID, value string) error {
	value = strings.TrimSpace(value)
	if !ValidateCredential(id, value) {
		return apperrors.Validation(fmt.Sprintf("credential for %q does not look like a valid API key", id))
	}

	s.mu.Lock()
	s.snap.Credentials[id] = value
	err := s.persistLocked()
	snap, subs := s.snapshotAndSubsLocked()
	s.mu.Unlock()

	s.notify(snap, subs)
	return err
}

// RemoveCredential deletes the mapping entry entirely: absence, not an
// empty string, signals "not configured".
func (s *Store) RemoveCredential(id capability.ProviderID) error {
	s.mu.Lock()
	delete(s.snap.Credentials, id)
	err := s.persistLocked()
	snap, subs := s.snapshotAndSubsLocked()
	s.mu.Unlock()

	s.notify(snap, subs)
	return err
}

// SelectProvider overwrites a capability's selected provider. Selection and
// configuration are independent: selecting an unconfigured provider is
// allowed and surfaces downstream as a configuration error.
func (s *Store) SelectProvider(cap capability.Capability, id capability.ProviderID) error {
	s.mu.Lock()
	switch cap {
	case capability.CapabilityText:
		s.snap.SelectedTextProvider = id
	case capability.CapabilityImage:
		s.snap.SelectedImageProvider = id
	case capability.CapabilityVideo:
		s.snap.SelectedVideoProvider = id
	default:
		s.mu.Unlock()
		return apperrors.Validation(fmt.Sprintf("capability %q has no provider selection", cap))
	}
	err := s.persistLocked()
	snap, subs := s.snapshotAndSubsLocked()
	s.mu.Unlock()

	s.notify(snap, subs)
	return err
}

// Subscribe registers a listener, invoked synchronously on every
// successful mutation in insertion order. The returned closure removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// ExportBlob serializes the full snapshot as pretty-printed JSON, suitable
// for saving to a file and re-importing elsewhere.
func (s *Store) ExportBlob() (string, error) {
	s.mu.Lock()
	snap := s.snap.Clone()
	s.mu.Unlock()

	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serialize settings: %w", err)
	}
	return string(raw), nil
}

// ImportBlob replaces the snapshot with a previously exported record.
// A blob that fails to parse or lacks a credential mapping is rejected
// without mutating existing state. Fields absent from the blob get their
// defaults; unrecognized fields are preserved.
func (s *Store) ImportBlob(text string) error {
	data := []byte(text)
	if !hasCredentialMapping(data) {
		return apperrors.Validation("import blob is not a settings record (no credential mapping)")
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return apperrors.Validation("import blob could not be parsed")
	}

	s.mu.Lock()
	s.snap = snap
	err := s.persistLocked()
	snapCopy, subs := s.snapshotAndSubsLocked()
	s.mu.Unlock()

	s.notify(snapCopy, subs)
	return err
}

// ClearAll resets to defaults and persists.
func (s *Store) ClearAll() error {
	s.mu.Lock()
	s.snap = DefaultSnapshot()
	err := s.persistLocked()
	snap, subs := s.snapshotAndSubsLocked()
	s.mu.Unlock()

	s.notify(snap, subs)
	return err
}

// persistLocked writes the record through the blob. A write failure is
// reported to the caller but the in-memory snapshot remains the source of
// truth for the session.
func (s *Store) persistLocked() error {
	data, err := json.Marshal(s.snap)
	if err != nil {
		return fmt.Errorf("serialize settings: %w", err)
	}
	if err := s.blob.Save(data); err != nil {
		s.log.Error("settings persist failed, in-memory state retained", logger.Err(err))
		return fmt.Errorf("persist settings: %w", err)
	}
	return nil
}

func (s *Store) snapshotAndSubsLocked() (Snapshot, []subscriber) {
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	return s.snap.Clone(), subs
}

func (s *Store) notify(snap Snapshot, subs []subscriber) {
	for _, sub := range subs {
		// Each listener gets its own copy so one cannot mutate what the
		// next one sees.
		sub.fn(snap.Clone())
	}
}
