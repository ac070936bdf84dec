package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recorder-notifier/internal/common/errors"
	"recorder-notifier/internal/dedup"
	"recorder-notifier/internal/notify"
)

// stubNotifier counts deliveries and fails on demand.
type stubNotifier struct {
	mu    sync.Mutex
	sends int64
	texts []string
	err   error
}

func (s *stubNotifier) Send(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	atomic.AddInt64(&s.sends, 1)
	s.texts = append(s.texts, text)
	return nil
}

func (s *stubNotifier) sendCount() int64 {
	return atomic.LoadInt64(&s.sends)
}

// failingStore simulates a dedup backend outage.
type failingStore struct{}

func (failingStore) CheckAndMark(ctx context.Context, id string) (bool, error) {
	return false, errors.StoreError("backend down", nil)
}
func (failingStore) Unmark(ctx context.Context, id string) error { return nil }
func (failingStore) Len(ctx context.Context) (int, error)       { return 0, nil }
func (failingStore) Health(ctx context.Context) error           { return nil }
func (failingStore) Close() error                               { return nil }

func newTestHandlers(notifier Notifier, filter *notify.Filter) (*Handlers, *dedup.MemoryStore) {
	store := dedup.NewMemoryStore(time.Hour)
	return New(store, notifier, filter, 0, nil), store
}

func postEvent(h *Handlers, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.HandleWebhook(rec, req)
	return rec
}

func eventBody(id, eventType string) string {
	return fmt.Sprintf(`{
		"EventType": %q,
		"EventTimestamp": "2024-05-01T12:30:00+08:00",
		"EventId": %q,
		"EventData": {"RoomId": 92613, "Name": "streamer", "Title": "t"}
	}`, eventType, id)
}

func TestHandleWebhook_FreshEventDelivered(t *testing.T) {
	notifier := &stubNotifier{}
	h, _ := newTestHandlers(notifier, nil)

	rec := postEvent(h, eventBody("evt-1", "SessionStarted"))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(1), notifier.sendCount())
	assert.Contains(t, notifier.texts[0], "Recording started")
}

func TestHandleWebhook_DuplicateAcknowledgedWithoutDelivery(t *testing.T) {
	notifier := &stubNotifier{}
	h, _ := newTestHandlers(notifier, nil)

	first := postEvent(h, eventBody("evt-1", "SessionStarted"))
	require.Equal(t, http.StatusNoContent, first.Code)

	replay := postEvent(h, eventBody("evt-1", "SessionStarted"))

	// Duplicates are acknowledged so the sender stops retrying, and no
	// second delivery happens.
	assert.Equal(t, http.StatusNoContent, replay.Code)
	assert.Equal(t, int64(1), notifier.sendCount())
}

func TestHandleWebhook_MalformedPayload(t *testing.T) {
	notifier := &stubNotifier{}
	h, _ := newTestHandlers(notifier, nil)

	t.Run("invalid JSON", func(t *testing.T) {
		rec := postEvent(h, "not json at all")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing EventId", func(t *testing.T) {
		rec := postEvent(h, `{"EventType": "SessionStarted"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	// Malformed payloads must never reach the delivery client.
	assert.Equal(t, int64(0), notifier.sendCount())
}

func TestHandleWebhook_DeliveryFailureIsRetriable(t *testing.T) {
	notifier := &stubNotifier{err: errors.DeliveryError("telegram unreachable", nil)}
	h, _ := newTestHandlers(notifier, nil)

	rec := postEvent(h, eventBody("evt-1", "SessionStarted"))
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	// The failed id was unmarked, so the sender's retry of the same event
	// is processed as new and delivered this time.
	notifier.err = nil
	retry := postEvent(h, eventBody("evt-1", "SessionStarted"))

	assert.Equal(t, http.StatusNoContent, retry.Code)
	assert.Equal(t, int64(1), notifier.sendCount())
}

// slowNotifier holds the delivery until its context expires, then fails.
type slowNotifier struct{}

func (slowNotifier) Send(ctx context.Context, text string) error {
	<-ctx.Done()
	return errors.DeliveryError("request timed out", ctx.Err())
}

func TestHandleWebhook_UnmarkSurvivesExhaustedDeliveryBudget(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	store, err := dedup.NewRedisStore(&dedup.RedisConfig{Address: mr.Addr()}, time.Hour)
	require.NoError(t, err)
	defer store.Close()

	// A delivery that consumes its entire budget must not poison the
	// rollback: the unmark runs on a fresh context, so the id is freed
	// and the sender's retry is processed as new.
	h := New(store, slowNotifier{}, nil, 50*time.Millisecond, nil)

	rec := postEvent(h, eventBody("evt-slow", "SessionStarted"))
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	first, err := store.CheckAndMark(context.Background(), "evt-slow")
	require.NoError(t, err)
	assert.True(t, first, "id should be unmarked after the failed delivery")
}

func TestHandleWebhook_InternalFaultReturns500(t *testing.T) {
	notifier := &stubNotifier{err: errors.InternalError("renderer exploded", nil)}
	h, _ := newTestHandlers(notifier, nil)

	rec := postEvent(h, eventBody("evt-1", "SessionStarted"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleWebhook_StoreFailureReturns500(t *testing.T) {
	notifier := &stubNotifier{}
	h := New(failingStore{}, notifier, nil, 0, nil)

	rec := postEvent(h, eventBody("evt-1", "SessionStarted"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, int64(0), notifier.sendCount())
}

func TestHandleWebhook_UnknownEventTypeStillNotified(t *testing.T) {
	notifier := &stubNotifier{}
	h, _ := newTestHandlers(notifier, nil)

	rec := postEvent(h, eventBody("evt-1", "DiskFull"))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, int64(1), notifier.sendCount())
	assert.Contains(t, notifier.texts[0], "Unknown event (DiskFull)")
	assert.Contains(t, notifier.texts[0], "evt-1")
}

func TestHandleWebhook_FilteredEventAcknowledged(t *testing.T) {
	notifier := &stubNotifier{}
	filter := notify.NewFilter(true, []string{"SessionEnded"}, nil)
	h, _ := newTestHandlers(notifier, filter)

	rec := postEvent(h, eventBody("evt-1", "SessionStarted"))

	// Suppressed by the filter, but still acknowledged and still marked
	// seen, so a redelivery is a duplicate.
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(0), notifier.sendCount())

	replay := postEvent(h, eventBody("evt-1", "SessionStarted"))
	assert.Equal(t, http.StatusNoContent, replay.Code)
	assert.Equal(t, int64(0), notifier.sendCount())
}

func TestHandleWebhook_ConcurrentIdenticalEvents(t *testing.T) {
	notifier := &stubNotifier{}
	h, _ := newTestHandlers(notifier, nil)

	const requests = 25

	var wg sync.WaitGroup
	codes := make([]int, requests)
	start := make(chan struct{})

	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			rec := postEvent(h, eventBody("evt-contended", "SessionStarted"))
			codes[i] = rec.Code
		}(i)
	}

	close(start)
	wg.Wait()

	// Exactly one delivery; every request is acknowledged as success or
	// duplicate.
	assert.Equal(t, int64(1), notifier.sendCount())
	for _, code := range codes {
		assert.Equal(t, http.StatusNoContent, code)
	}
}

func TestHealthCheck(t *testing.T) {
	notifier := &stubNotifier{}
	h, _ := newTestHandlers(notifier, nil)

	router := mux.NewRouter()
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), `"dedup_status":"healthy"`)

	// Health probing has no side effects on delivery.
	assert.Equal(t, int64(0), notifier.sendCount())
}
