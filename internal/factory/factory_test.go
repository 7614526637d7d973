package factory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adforge/core/internal/capability"
	apperrors "github.com/adforge/core/internal/shared/errors"
)

// fakeImageProvider counts calls so gating tests can prove no provider
// code ran.
type fakeImageProvider struct {
	id          capability.ProviderID
	name        string
	implemented bool
	configured  bool

	calls  int
	result *capability.Result
	err    error
}

func (p *fakeImageProvider) ID() capability.ProviderID { return p.id }
func (p *fakeImageProvider) Name() string              { return p.name }
func (p *fakeImageProvider) Implemented() bool         { return p.implemented }
func (p *fakeImageProvider) Configured() bool          { return p.configured }

func (p *fakeImageProvider) GenerateImage(context.Context, capability.ImageRequest) (*capability.Result, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	if p.result != nil {
		return p.result, nil
	}
	return &capability.Result{URL: "https://cdn.example/" + string(p.id) + ".png"}, nil
}

func fixedSelector(id capability.ProviderID) Selector {
	return func() (capability.ProviderID, bool) { return id, true }
}

func workingProvider(id capability.ProviderID, name string) *fakeImageProvider {
	return &fakeImageProvider{id: id, name: name, implemented: true, configured: true}
}

func TestImageFactoryGeneratesViaSelectedProvider(t *testing.T) {
	openai := workingProvider(capability.ProviderOpenAI, "OpenAI")
	runware := workingProvider(capability.ProviderRunware, "Runware")
	f := NewImage([]capability.ImageProvider{openai, runware}, fixedSelector(capability.ProviderRunware), nil, nil)

	res, err := f.Generate(context.Background(), capability.ImageRequest{Prompt: "a lighthouse"})
	require.NoError(t, err)

	assert.Equal(t, 1, runware.calls)
	assert.Zero(t, openai.calls, "only the selected provider is invoked")
	assert.Equal(t, capability.ProviderRunware, res.Provider, "result is stamped with the servicing provider")
}

func TestImageFactoryExplicitOverride(t *testing.T) {
	openai := workingProvider(capability.ProviderOpenAI, "OpenAI")
	runware := workingProvider(capability.ProviderRunware, "Runware")
	f := NewImage([]capability.ImageProvider{openai, runware}, fixedSelector(capability.ProviderRunware), nil, nil)

	_, err := f.Generate(context.Background(), capability.ImageRequest{Prompt: "x"}, capability.ProviderOpenAI)
	require.NoError(t, err)
	assert.Equal(t, 1, openai.calls)
	assert.Zero(t, runware.calls)
}

func TestImageFactoryGatingWithoutNetwork(t *testing.T) {
	t.Run("Unconfigured provider", func(t *testing.T) {
		p := &fakeImageProvider{id: capability.ProviderRunware, name: "Runware", implemented: true, configured: false}
		f := NewImage([]capability.ImageProvider{p}, fixedSelector(p.id), nil, nil)

		_, err := f.Generate(context.Background(), capability.ImageRequest{Prompt: "x"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrNotConfigured))
		assert.Contains(t, err.Error(), "Runware", "the error names the failing provider, no silent substitution")
		assert.Zero(t, p.calls, "gating happens before any provider call")
	})

	t.Run("Stub provider", func(t *testing.T) {
		p := &fakeImageProvider{id: capability.ProviderMidjourney, name: "Midjourney", implemented: false, configured: true}
		f := NewImage([]capability.ImageProvider{p}, fixedSelector(p.id), nil, nil)

		_, err := f.Generate(context.Background(), capability.ImageRequest{Prompt: "x"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrNotImplemented))
		assert.Zero(t, p.calls)
	})

	t.Run("Configured fallback is never tried", func(t *testing.T) {
		selected := &fakeImageProvider{id: capability.ProviderRunware, name: "Runware", implemented: true, configured: false}
		fallback := workingProvider(capability.ProviderOpenAI, "OpenAI")
		f := NewImage([]capability.ImageProvider{selected, fallback}, fixedSelector(selected.id), nil, nil)

		_, err := f.Generate(context.Background(), capability.ImageRequest{Prompt: "x"})
		require.Error(t, err)
		assert.Equal(t, string(capability.ProviderRunware), apperrors.ProviderOf(err))
		assert.Zero(t, fallback.calls)
	})
}

func TestImageFactoryResolveErrors(t *testing.T) {
	p := workingProvider(capability.ProviderOpenAI, "OpenAI")

	t.Run("Unknown explicit provider panics", func(t *testing.T) {
		f := NewImage([]capability.ImageProvider{p}, fixedSelector(p.id), nil, nil)
		assert.Panics(t, func() {
			_, _ = f.Resolve(capability.ProviderID("bogus"))
		})
	})

	t.Run("Unknown selected provider is a recoverable error", func(t *testing.T) {
		f := NewImage([]capability.ImageProvider{p}, fixedSelector(capability.ProviderID("bogus")), nil, nil)
		_, err := f.Resolve()
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
	})

	t.Run("No selection", func(t *testing.T) {
		none := func() (capability.ProviderID, bool) { return "", false }
		f := NewImage([]capability.ImageProvider{p}, none, nil, nil)
		_, err := f.Resolve()
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
	})
}

func TestFactoryDuplicateRegistrationPanics(t *testing.T) {
	a := workingProvider(capability.ProviderOpenAI, "OpenAI")
	b := workingProvider(capability.ProviderOpenAI, "OpenAI again")
	assert.Panics(t, func() {
		NewImage([]capability.ImageProvider{a, b}, fixedSelector(a.id), nil, nil)
	})
}

func TestFactoryNormalizesProviderErrors(t *testing.T) {
	t.Run("Raw errors are wrapped", func(t *testing.T) {
		p := workingProvider(capability.ProviderRunware, "Runware")
		p.err = errors.New("tcp: connection refused")
		f := NewImage([]capability.ImageProvider{p}, fixedSelector(p.id), nil, nil)

		_, err := f.Generate(context.Background(), capability.ImageRequest{Prompt: "x"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrProvider))
		assert.Equal(t, string(capability.ProviderRunware), apperrors.ProviderOf(err))
	})

	t.Run("Classified errors pass through", func(t *testing.T) {
		p := workingProvider(capability.ProviderRunware, "Runware")
		p.err = apperrors.Provider(string(p.id), "content policy violation", nil)
		f := NewImage([]capability.ImageProvider{p}, fixedSelector(p.id), nil, nil)

		_, err := f.Generate(context.Background(), capability.ImageRequest{Prompt: "x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "content policy violation")
	})
}

func TestFactoryList(t *testing.T) {
	working := workingProvider(capability.ProviderOpenAI, "OpenAI")
	unconfigured := &fakeImageProvider{id: capability.ProviderRunware, name: "Runware", implemented: true}
	stub := &fakeImageProvider{id: capability.ProviderMidjourney, name: "Midjourney (coming soon)", configured: true}
	f := NewImage([]capability.ImageProvider{working, unconfigured, stub}, fixedSelector(working.id), nil, nil)

	list := f.List()
	require.Len(t, list, 3)
	assert.Equal(t, []Info{
		{ID: capability.ProviderOpenAI, Name: "OpenAI", Configured: true},
		{ID: capability.ProviderRunware, Name: "Runware"},
		{ID: capability.ProviderMidjourney, Name: "Midjourney (coming soon)", Configured: true, Stub: true},
	}, list, "registration order is preserved")

	configured := f.ListConfigured()
	require.Len(t, configured, 1)
	assert.Equal(t, capability.ProviderOpenAI, configured[0].ID)

	assert.True(t, f.HasAnyConfigured())
}
