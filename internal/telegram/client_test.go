package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recorder-notifier/internal/common/errors"
)

func newTestClient(apiBase string) *Client {
	return NewClient(Config{
		BotToken: "test-token",
		ChatID:   "12345",
		APIBase:  apiBase,
		Timeout:  2 * time.Second,
	})
}

func TestClient_Send(t *testing.T) {
	t.Run("successful delivery", func(t *testing.T) {
		var gotPath string
		var gotBody sendMessageRequest

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			json.NewEncoder(w).Encode(map[string]interface{}{"ok": true})
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		err := client.Send(context.Background(), "hello")

		require.NoError(t, err)
		assert.Equal(t, "/bottest-token/sendMessage", gotPath)
		assert.Equal(t, "12345", gotBody.ChatID)
		assert.Equal(t, "hello", gotBody.Text)
		assert.True(t, gotBody.DisableWebPagePreview)
	})

	t.Run("API error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]interface{}{"ok": false, "description": "Too Many Requests"})
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		err := client.Send(context.Background(), "hello")

		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrTypeDelivery))
	})

	t.Run("ok false envelope", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{"ok": false, "description": "chat not found"})
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		err := client.Send(context.Background(), "hello")

		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrTypeDelivery))
		assert.Contains(t, err.Error(), "chat not found")
	})

	t.Run("invalid response body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>nope</html>"))
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		err := client.Send(context.Background(), "hello")

		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrTypeDelivery))
	})

	t.Run("unreachable server", func(t *testing.T) {
		client := newTestClient("http://127.0.0.1:1")
		err := client.Send(context.Background(), "hello")

		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrTypeDelivery))
	})

	t.Run("context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(time.Second)
			json.NewEncoder(w).Encode(map[string]interface{}{"ok": true})
		}))
		defer server.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		client := newTestClient(server.URL)
		err := client.Send(ctx, "hello")

		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrTypeDelivery))
	})
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(Config{BotToken: "t", ChatID: "c"})
	assert.Equal(t, "https://api.telegram.org", client.config.APIBase)
	assert.Equal(t, 8*time.Second, client.config.Timeout)
}
