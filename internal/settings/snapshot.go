// Package settings is the single source of truth for provider selection
// and credentials. It persists one self-describing JSON blob (the browser
// localStorage record of the original deployment becomes a file on disk),
// restores defaults when the blob is absent or unparseable, and notifies
// subscribers synchronously on every successful mutation.
package settings

import (
	"encoding/json"
	"fmt"

	"github.com/adforge/core/internal/capability"
)

// JSON field names of the persisted record.
const (
	fieldCredentials   = "credentials"
	fieldTextProvider  = "selectedTextProvider"
	fieldImageProvider = "selectedImageProvider"
	fieldVideoProvider = "selectedVideoProvider"
)

// Snapshot is the sole unit of persistence: the credential set plus the
// selected provider per capability. Extra carries fields written by newer
// (or foreign) versions of the record; they survive load/save and
// export/import round-trips verbatim.
type Snapshot struct {
	Credentials           map[capability.ProviderID]string
	SelectedTextProvider  capability.ProviderID
	SelectedImageProvider capability.ProviderID
	SelectedVideoProvider capability.ProviderID

	Extra map[string]json.RawMessage
}

// DefaultSnapshot returns the first-run state: no credentials, each
// capability's default provider preselected.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Credentials:           make(map[capability.ProviderID]string),
		SelectedTextProvider:  capability.ProviderOpenAI,
		SelectedImageProvider: capability.ProviderOpenAI,
		SelectedVideoProvider: capability.ProviderHeyGen,
	}
}

// Clone returns a deep copy. Callers of Store.Snapshot receive clones so
// the live record is never mutated from outside.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Credentials = make(map[capability.ProviderID]string, len(s.Credentials))
	for k, v := range s.Credentials {
		out.Credentials[k] = v
	}
	if s.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(s.Extra))
		for k, v := range s.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

// MarshalJSON emits the persisted record shape, re-emitting preserved
// unknown fields alongside the known ones.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	record := make(map[string]json.RawMessage, 4+len(s.Extra))
	for k, v := range s.Extra {
		record[k] = v
	}

	put := func(key string, v any) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		record[key] = raw
		return nil
	}

	if err := put(fieldCredentials, s.Credentials); err != nil {
		return nil, err
	}
	if err := put(fieldTextProvider, s.SelectedTextProvider); err != nil {
		return nil, err
	}
	if err := put(fieldImageProvider, s.SelectedImageProvider); err != nil {
		return nil, err
	}
	if err := put(fieldVideoProvider, s.SelectedVideoProvider); err != nil {
		return nil, err
	}

	return json.Marshal(record)
}

// UnmarshalJSON parses a persisted record, applying defaults for absent
// fields and keeping unrecognized ones in Extra. Older blobs that predate
// a selection field therefore load with that field's documented default.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var record map[string]json.RawMessage
	if err := json.Unmarshal(data, &record); err != nil {
		return err
	}

	*s = DefaultSnapshot()

	if raw, ok := record[fieldCredentials]; ok {
		if err := json.Unmarshal(raw, &s.Credentials); err != nil {
			return fmt.Errorf("parse %s: %w", fieldCredentials, err)
		}
		if s.Credentials == nil {
			s.Credentials = make(map[capability.ProviderID]string)
		}
		delete(record, fieldCredentials)
	}

	selections := map[string]*capability.ProviderID{
		fieldTextProvider:  &s.SelectedTextProvider,
		fieldImageProvider: &s.SelectedImageProvider,
		fieldVideoProvider: &s.SelectedVideoProvider,
	}
	for key, dst := range selections {
		raw, ok := record[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return fmt.Errorf("parse %s: %w", key, err)
		}
		delete(record, key)
	}

	if len(record) > 0 {
		s.Extra = record
	}
	return nil
}

// hasCredentialMapping checks the minimal import shape: the record must
// carry a credential mapping (an object, possibly empty).
func hasCredentialMapping(data []byte) bool {
	var record map[string]json.RawMessage
	if err := json.Unmarshal(data, &record); err != nil {
		return false
	}
	raw, ok := record[fieldCredentials]
	if !ok {
		return false
	}
	var creds map[string]string
	return json.Unmarshal(raw, &creds) == nil
}
