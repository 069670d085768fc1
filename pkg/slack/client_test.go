package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franizus/slack-jira-agent/pkg/logx"
)

func testSlackClient(serverURL string) *Client {
	return &Client{
		token:      "xoxb-test",
		baseURL:    serverURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     logx.NewLogger("slack"),
	}
}

func TestUserDisplayNamePrefersNormalized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users.info", r.URL.Path)
		assert.Equal(t, "U123", r.URL.Query().Get("user"))
		assert.Equal(t, "Bearer xoxb-test", r.Header.Get("Authorization"))
		w.Write([]byte(`{"ok":true,"user":{"profile":{"real_name_normalized":"Ana Perez","real_name":"ana perez"}}}`))
	}))
	defer server.Close()

	name := testSlackClient(server.URL).UserDisplayName(context.Background(), "U123")
	assert.Equal(t, "Ana Perez", name)
}

func TestUserDisplayNameDegradesToEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"error":"user_not_found"}`))
	}))
	defer server.Close()

	client := testSlackClient(server.URL)
	assert.Empty(t, client.UserDisplayName(context.Background(), "U404"))
	assert.Empty(t, client.UserDisplayName(context.Background(), ""))
}

func TestPostMessagePayload(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat.postMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := testSlackClient(server.URL)
	err := client.PostMessage(context.Background(), "C1", "hola", "1716.1", []Block{SectionBlock("hola")})
	require.NoError(t, err)

	assert.Equal(t, "C1", payload["channel"])
	assert.Equal(t, "hola", payload["text"])
	assert.Equal(t, "1716.1", payload["thread_ts"])
	require.Len(t, payload["blocks"], 1)
}

func TestPostMessageOmitsEmptyThreadAndBlocks(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	require.NoError(t, testSlackClient(server.URL).PostMessage(context.Background(), "C1", "hola", "", nil))
	assert.NotContains(t, payload, "thread_ts")
	assert.NotContains(t, payload, "blocks")
}

func TestPostMessageSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"error":"channel_not_found"}`))
	}))
	defer server.Close()

	err := testSlackClient(server.URL).PostMessage(context.Background(), "C404", "hola", "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_not_found")
}

func TestSetThreadStatusDefaultsText(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/assistant.threads.setStatus", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	require.NoError(t, testSlackClient(server.URL).SetThreadStatus(context.Background(), "D1", "1716.2", ""))
	assert.Equal(t, "pensando...", payload["status"])
	assert.Equal(t, "D1", payload["channel_id"])
	assert.Equal(t, "1716.2", payload["thread_ts"])
}
