package settings

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adforge/core/internal/capability"
	apperrors "github.com/adforge/core/internal/shared/errors"
)

const (
	testOpenAIKey = "sk-test-0123456789abcdef0123456789"
	testHeyGenKey = "hg-0123456789abcdef0123456789abcdef"
)

// failingBlob rejects every save.
type failingBlob struct {
	MemoryBlob
	saveErr error
}

func (b *failingBlob) Save(data []byte) error {
	if b.saveErr != nil {
		return b.saveErr
	}
	return b.MemoryBlob.Save(data)
}

func newTestStore(t *testing.T) (*Store, *MemoryBlob) {
	t.Helper()
	blob := &MemoryBlob{}
	return NewStore(blob, nil), blob
}

func TestStoreDefaults(t *testing.T) {
	store, _ := newTestStore(t)

	snap := store.Snapshot()
	assert.Empty(t, snap.Credentials)
	assert.Equal(t, capability.ProviderOpenAI, snap.SelectedTextProvider)
	assert.Equal(t, capability.ProviderOpenAI, snap.SelectedImageProvider)
	assert.Equal(t, capability.ProviderHeyGen, snap.SelectedVideoProvider)
}

func TestStoreCredentialRoundTrip(t *testing.T) {
	blob := &MemoryBlob{}
	store := NewStore(blob, nil)

	require.NoError(t, store.UpdateCredential(capability.ProviderOpenAI, testOpenAIKey))

	// Same store sees it immediately.
	got, ok := store.Credential(capability.ProviderOpenAI)
	require.True(t, ok)
	assert.Equal(t, testOpenAIKey, got)

	// A fresh store over the same blob restores it.
	reloaded := NewStore(blob, nil)
	got, ok = reloaded.Credential(capability.ProviderOpenAI)
	require.True(t, ok)
	assert.Equal(t, testOpenAIKey, got)
}

func TestStoreUpdateCredentialStoresTrimmedKey(t *testing.T) {
	store, _ := newTestStore(t)

	// Keys pasted from a browser often carry surrounding whitespace. The
	// stored value must be the clean key, or it ends up verbatim in
	// Authorization headers.
	require.NoError(t, store.UpdateCredential(capability.ProviderOpenAI, "  "+testOpenAIKey+"\n"))

	got, ok := store.Credential(capability.ProviderOpenAI)
	require.True(t, ok)
	assert.Equal(t, testOpenAIKey, got)
}

func TestStoreUpdateCredentialRejectsInvalid(t *testing.T) {
	store, _ := newTestStore(t)

	err := store.UpdateCredential(capability.ProviderOpenAI, "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	_, ok := store.Credential(capability.ProviderOpenAI)
	assert.False(t, ok)
}

func TestStoreRemoveCredential(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.UpdateCredential(capability.ProviderOpenAI, testOpenAIKey))

	require.NoError(t, store.RemoveCredential(capability.ProviderOpenAI))

	_, ok := store.Credential(capability.ProviderOpenAI)
	assert.False(t, ok)

	// The mapping entry is gone, not emptied.
	snap := store.Snapshot()
	_, present := snap.Credentials[capability.ProviderOpenAI]
	assert.False(t, present)
}

func TestStoreSelectProvider(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.SelectProvider(capability.CapabilityImage, capability.ProviderRunware))

	id, ok := store.Selected(capability.CapabilityImage)
	require.True(t, ok)
	assert.Equal(t, capability.ProviderRunware, id)

	t.Run("Speech capabilities are not selectable", func(t *testing.T) {
		err := store.SelectProvider(capability.CapabilityTextToSpeech, capability.ProviderElevenLabs)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrValidation))

		_, ok := store.Selected(capability.CapabilityTextToSpeech)
		assert.False(t, ok)
	})
}

func TestStoreSubscribers(t *testing.T) {
	store, _ := newTestStore(t)

	var order []string
	store.Subscribe(func(Snapshot) { order = append(order, "first") })
	unsub := store.Subscribe(func(Snapshot) { order = append(order, "second") })
	store.Subscribe(func(Snapshot) { order = append(order, "third") })

	require.NoError(t, store.UpdateCredential(capability.ProviderOpenAI, testOpenAIKey))
	assert.Equal(t, []string{"first", "second", "third"}, order)

	t.Run("Unsubscribed listener stops receiving", func(t *testing.T) {
		order = nil
		unsub()
		require.NoError(t, store.SelectProvider(capability.CapabilityText, capability.ProviderClaude))
		assert.Equal(t, []string{"first", "third"}, order)
	})

	t.Run("Listener mutation does not leak into other listeners", func(t *testing.T) {
		var seen string
		store.Subscribe(func(snap Snapshot) {
			snap.Credentials[capability.ProviderOpenAI] = "mutated"
		})
		store.Subscribe(func(snap Snapshot) {
			seen = snap.Credentials[capability.ProviderOpenAI]
		})
		require.NoError(t, store.SelectProvider(capability.CapabilityText, capability.ProviderOpenAI))
		assert.Equal(t, testOpenAIKey, seen)
	})
}

func TestStoreExportImportIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.UpdateCredential(capability.ProviderOpenAI, testOpenAIKey))
	require.NoError(t, store.UpdateCredential(capability.ProviderHeyGen, testHeyGenKey))
	require.NoError(t, store.SelectProvider(capability.CapabilityImage, capability.ProviderRunware))

	exported, err := store.ExportBlob()
	require.NoError(t, err)

	other, _ := newTestStore(t)
	require.NoError(t, other.ImportBlob(exported))
	assert.Equal(t, store.Snapshot(), other.Snapshot())

	reexported, err := other.ExportBlob()
	require.NoError(t, err)
	assert.JSONEq(t, exported, reexported)
}

func TestStoreImportBackwardCompat(t *testing.T) {
	// An older record without the video selection field.
	blob := `{
		"credentials": {"openai": "` + testOpenAIKey + `"},
		"selectedTextProvider": "claude"
	}`

	store, _ := newTestStore(t)
	require.NoError(t, store.ImportBlob(blob))

	snap := store.Snapshot()
	assert.Equal(t, capability.ProviderID("claude"), snap.SelectedTextProvider)
	assert.Equal(t, capability.ProviderHeyGen, snap.SelectedVideoProvider, "absent selection loads its default")
	assert.Equal(t, testOpenAIKey, snap.Credentials[capability.ProviderOpenAI])
}

func TestStoreImportPreservesUnknownFields(t *testing.T) {
	blob := `{
		"credentials": {},
		"futureFeatureFlag": {"enabled": true}
	}`

	store, _ := newTestStore(t)
	require.NoError(t, store.ImportBlob(blob))

	exported, err := store.ExportBlob()
	require.NoError(t, err)

	var record map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(exported), &record))
	assert.Contains(t, record, "futureFeatureFlag")
}

func TestStoreImportRejectsWithoutMutation(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.UpdateCredential(capability.ProviderOpenAI, testOpenAIKey))
	before := store.Snapshot()

	notified := 0
	store.Subscribe(func(Snapshot) { notified++ })

	for name, blob := range map[string]string{
		"not json":              "###",
		"no credential mapping": `{"selectedTextProvider": "openai"}`,
		"credentials not a map": `{"credentials": "oops"}`,
	} {
		t.Run(name, func(t *testing.T) {
			err := store.ImportBlob(blob)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrValidation))
		})
	}

	assert.Equal(t, before, store.Snapshot())
	assert.Zero(t, notified)
}

func TestStorePersistFailure(t *testing.T) {
	blob := &failingBlob{saveErr: errors.New("disk full")}
	store := NewStore(blob, nil)

	notified := 0
	store.Subscribe(func(Snapshot) { notified++ })

	err := store.UpdateCredential(capability.ProviderOpenAI, testOpenAIKey)
	require.Error(t, err)

	// Memory stays authoritative and listeners still ran.
	got, ok := store.Credential(capability.ProviderOpenAI)
	require.True(t, ok)
	assert.Equal(t, testOpenAIKey, got)
	assert.Equal(t, 1, notified)
}

func TestStoreClearAll(t *testing.T) {
	blob := &MemoryBlob{}
	store := NewStore(blob, nil)
	require.NoError(t, store.UpdateCredential(capability.ProviderOpenAI, testOpenAIKey))
	require.NoError(t, store.SelectProvider(capability.CapabilityText, capability.ProviderGemini))

	require.NoError(t, store.ClearAll())

	snap := store.Snapshot()
	assert.Empty(t, snap.Credentials)
	assert.Equal(t, capability.ProviderOpenAI, snap.SelectedTextProvider)

	// The reset survives a reload.
	reloaded := NewStore(blob, nil)
	assert.Empty(t, reloaded.Snapshot().Credentials)
}

func TestStoreLoadUnparseableBlob(t *testing.T) {
	blob := &MemoryBlob{}
	require.NoError(t, blob.Save([]byte("not json")))

	store := NewStore(blob, nil)
	assert.Equal(t, DefaultSnapshot(), store.Snapshot())
}
