package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adforge/core/internal/capability"
	apperrors "github.com/adforge/core/internal/shared/errors"
)

// staticCreds is a fixed credential source for tests.
type staticCreds map[capability.ProviderID]string

func (c staticCreds) Credential(id capability.ProviderID) (string, bool) {
	v, ok := c[id]
	return v, ok
}

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		require.NotNil(t, req.ResponseFormat)
		assert.Equal(t, "json_object", req.ResponseFormat.Type)

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestAnalyzeBusiness(t *testing.T) {
	content := `{
		"business_type": "artisan bakery",
		"target_audience": "breakfast commuters",
		"pain_points": ["no time"],
		"value_proposition": "fresh every morning",
		"persuasion_angles": ["scarcity"]
	}`
	srv := chatServer(t, content)
	defer srv.Close()

	c := New(srv.Client(), staticCreds{capability.ProviderOpenAI: "sk-test"}, WithBaseURL(srv.URL))

	analysis, err := c.AnalyzeBusiness(context.Background(), "we bake sourdough")
	require.NoError(t, err)
	assert.Equal(t, "artisan bakery", analysis.BusinessType)
	assert.Equal(t, []string{"no time"}, analysis.PainPoints)
}

func TestAnalyzeBusinessIncomplete(t *testing.T) {
	srv := chatServer(t, `{"business_type": ""}`)
	defer srv.Close()

	c := New(srv.Client(), staticCreds{capability.ProviderOpenAI: "sk-test"}, WithBaseURL(srv.URL))

	_, err := c.AnalyzeBusiness(context.Background(), "doc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete analysis")
}

func TestGenerateConcepts(t *testing.T) {
	content := `{"concepts": [
		{"headline": "A", "visual_concept": "va", "call_to_action": "ca"},
		{"headline": "B", "visual_concept": "vb", "call_to_action": "cb"},
		{"headline": "C", "visual_concept": "vc", "call_to_action": "cc"}
	]}`
	srv := chatServer(t, content)
	defer srv.Close()

	c := New(srv.Client(), staticCreds{capability.ProviderOpenAI: "sk-test"}, WithBaseURL(srv.URL))

	t.Run("Returns requested count", func(t *testing.T) {
		concepts, err := c.GenerateConcepts(context.Background(), &capability.BusinessAnalysis{}, 3)
		require.NoError(t, err)
		assert.Len(t, concepts, 3)
		assert.Equal(t, "A", concepts[0].Headline)
	})

	t.Run("Truncates surplus concepts", func(t *testing.T) {
		concepts, err := c.GenerateConcepts(context.Background(), &capability.BusinessAnalysis{}, 2)
		require.NoError(t, err)
		assert.Len(t, concepts, 2)
	})
}

func TestGenerateConceptsDropsUnusable(t *testing.T) {
	content := `{"concepts": [
		{"headline": "", "visual_concept": "storefront at dawn", "call_to_action": "visit"},
		{"headline": "Fresh sourdough before your commute even starts", "visual_concept": "", "call_to_action": "visit"},
		{"headline": "one two three four five six seven eight nine ten eleven twelve thirteen", "visual_concept": "loaves", "call_to_action": "visit"},
		{"headline": "Fresh Bread, Zero Wait", "visual_concept": "warm loaves on a rack", "call_to_action": "Stop by today"}
	]}`
	srv := chatServer(t, content)
	defer srv.Close()

	c := New(srv.Client(), staticCreds{capability.ProviderOpenAI: "sk-test"}, WithBaseURL(srv.URL))

	concepts, err := c.GenerateConcepts(context.Background(), &capability.BusinessAnalysis{}, 4)
	require.NoError(t, err)
	require.Len(t, concepts, 1)
	assert.Equal(t, "Fresh Bread, Zero Wait", concepts[0].Headline)

	for _, concept := range concepts {
		assert.NotEmpty(t, strings.TrimSpace(concept.Headline))
		assert.LessOrEqual(t, len(strings.Fields(concept.Headline)), capability.MaxHeadlineWords)
	}
}

func TestGenerateConceptsAllUnusable(t *testing.T) {
	srv := chatServer(t, `{"concepts": [{"headline": "", "visual_concept": "x", "call_to_action": "y"}]}`)
	defer srv.Close()

	c := New(srv.Client(), staticCreds{capability.ProviderOpenAI: "sk-test"}, WithBaseURL(srv.URL))

	_, err := c.GenerateConcepts(context.Background(), &capability.BusinessAnalysis{}, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrEmptyResult))
}

func TestGenerateConceptsEmpty(t *testing.T) {
	srv := chatServer(t, `{"concepts": []}`)
	defer srv.Close()

	c := New(srv.Client(), staticCreds{capability.ProviderOpenAI: "sk-test"}, WithBaseURL(srv.URL))

	_, err := c.GenerateConcepts(context.Background(), &capability.BusinessAnalysis{}, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrEmptyResult))
}

func TestChatAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limit exceeded", "type": "rate_limit_error"},
		})
	}))
	defer srv.Close()

	c := New(srv.Client(), staticCreds{capability.ProviderOpenAI: "sk-test"}, WithBaseURL(srv.URL))

	_, err := c.AnalyzeBusiness(context.Background(), "doc")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrProvider))
	assert.Contains(t, err.Error(), "rate limit exceeded")
}

func TestClientNotConfigured(t *testing.T) {
	c := New(http.DefaultClient, staticCreds{})

	assert.False(t, c.Configured())

	_, err := c.AnalyzeBusiness(context.Background(), "doc")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotConfigured))
}

func TestGenerateImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images/generations", r.URL.Path)

		var req imageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "dall-e-3", req.Model)
		assert.Equal(t, "1024x1024", req.Size)
		assert.Contains(t, req.Prompt, "croissants")
		assert.Contains(t, req.Prompt, "Fresh at 7am", "overlay text folds into the prompt")

		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"url": "https://cdn.example/img.png"}},
		})
	}))
	defer srv.Close()

	c := New(srv.Client(), staticCreds{capability.ProviderOpenAI: "sk-test"}, WithBaseURL(srv.URL))

	res, err := c.GenerateImage(context.Background(), capability.ImageRequest{
		Prompt:      "croissants on a counter",
		OverlayText: "Fresh at 7am",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/img.png", res.URL)
}

func TestWhisperTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "verbose_json", r.FormValue("response_format"))

		_, _, err := r.FormFile("file")
		require.NoError(t, err)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"text":     "hello from the microphone",
			"language": "english",
		})
	}))
	defer srv.Close()

	w := NewWhisper(srv.Client(), staticCreds{capability.ProviderWhisper: "sk-test"}, WithWhisperBaseURL(srv.URL))

	// No language hint in the request: the detected language comes back.
	transcript, err := w.Transcribe(context.Background(), capability.TranscribeRequest{
		Audio:    []byte("fake-audio"),
		MIMEType: "audio/webm",
	})
	require.NoError(t, err)
	assert.Equal(t, "hello from the microphone", transcript.Text)
	assert.Equal(t, "english", transcript.Language)
}
