package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suhrabkhanauto-bit/SouthAsianArticles/pkg/config"
)

func newClient(baseURL string) *Client {
	return NewClient(config.WebhookConfig{
		BaseURL: baseURL,
		Targets: map[string]string{
			"generate_image": "/generate-image-lovable",
			"make_video":     "/reels-lovable",
		},
	})
}

func TestClient_TriggerPostsJSON(t *testing.T) {
	var gotPath, gotContentType string
	var gotBody map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]any{"accepted": true})
	}))
	defer ts.Close()

	body, err := newClient(ts.URL).Trigger(context.Background(), "generate_image",
		map[string]any{"news_source_id": 5})
	require.NoError(t, err)

	assert.Equal(t, "/generate-image-lovable", gotPath)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, float64(5), gotBody["news_source_id"])
	assert.Equal(t, true, body["accepted"])
}

func TestClient_TrailingSlashOnBaseURL(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	_, err := newClient(ts.URL + "/").Trigger(context.Background(), "make_video", nil)
	require.NoError(t, err)
	assert.Equal(t, "/reels-lovable", gotPath)
}

func TestClient_UnknownTarget(t *testing.T) {
	_, err := newClient("http://unused").Trigger(context.Background(), "launch_rocket", nil)
	assert.ErrorIs(t, err, ErrUnknownTarget)
}

func TestClient_NonJSONResponseWrappedAsRaw(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Workflow was started"))
	}))
	defer ts.Close()

	body, err := newClient(ts.URL).Trigger(context.Background(), "make_video", nil)
	require.NoError(t, err)
	assert.Equal(t, "Workflow was started", body["raw"])
}

func TestClient_UpstreamErrorCarriesStatusAndBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"message": "workflow not found"}`))
	}))
	defer ts.Close()

	_, err := newClient(ts.URL).Trigger(context.Background(), "generate_image", nil)
	require.Error(t, err)

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusBadGateway, upstream.Status)
	assert.Equal(t, "workflow not found", upstream.Body["message"])
}
