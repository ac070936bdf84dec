package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	apperrors "recorder-notifier/internal/common/errors"
	"recorder-notifier/internal/common/logging"
	"recorder-notifier/internal/events"
	"recorder-notifier/internal/notify"
)

// Response status policy. The recorder retries deliveries on non-2xx using
// its own backoff, so each status is a signal into that retry mechanism:
//
//	204  delivered, duplicate, or filtered  -> sender stops retrying
//	400  malformed payload                  -> retrying cannot help
//	502  downstream delivery failed         -> sender retries the same event
//	500  dedup backend or internal fault    -> sender retries the same event
//
// An event id is committed as seen only after successful delivery. On
// delivery failure the id is unmarked, so the sender's retry of the same
// EventId is processed as new again instead of being swallowed as a
// duplicate.

// maxBodySize caps webhook bodies; recorder events are small.
const maxBodySize = 1 << 20

// HandleWebhook processes one webhook delivery from the recorder:
// parse, dedup check-and-mark, filter, render, deliver.
func (h *Handlers) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	event, err := events.Parse(body)
	if err != nil {
		h.logger.Warn("Rejected malformed webhook payload",
			logging.Err(err),
			logging.Field{Key: "remote_addr", Value: r.RemoteAddr},
		)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	logger := h.logger.WithFields(
		logging.Field{Key: "event_id", Value: event.ID},
		logging.Field{Key: "event_type", Value: event.RawType},
	)

	first, err := h.store.CheckAndMark(r.Context(), event.ID)
	if err != nil {
		logger.Error("Dedup store check failed", err)
		writeError(w, http.StatusInternalServerError, "dedup store unavailable")
		return
	}
	if !first {
		// Duplicates are acknowledged, not rejected, so the sender's
		// retry mechanism stops retrying.
		logger.Debug("Suppressed duplicate event")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if !h.filter.ShouldPush(event) {
		// Filtered events stay marked as seen.
		logger.Debug("Event suppressed by push filter")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	text := notify.Render(event)

	// Deliver on a context detached from the inbound connection: if the
	// recorder drops the connection mid-delivery, aborting the Telegram
	// call would leave the id marked with no notification sent.
	deliveryCtx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.deliveryTimeout)
	defer cancel()

	if err := h.notifier.Send(deliveryCtx, text); err != nil {
		// Roll back the mark so the sender's retry of this event id is
		// treated as new and delivery is attempted again. The rollback
		// runs on its own context: a delivery that consumed the whole
		// deliveryCtx budget would otherwise fail the rollback too,
		// leaving the id marked and the notification lost for the whole
		// retention window.
		unmarkCtx, unmarkCancel := context.WithTimeout(context.WithoutCancel(r.Context()), 5*time.Second)
		defer unmarkCancel()
		if unmarkErr := h.store.Unmark(unmarkCtx, event.ID); unmarkErr != nil {
			logger.Error("Failed to unmark event after delivery failure", unmarkErr)
		}

		logger.Error("Notification delivery failed", err)
		switch apperrors.GetType(err) {
		case apperrors.ErrTypeDelivery:
			writeError(w, http.StatusBadGateway, "notification delivery failed")
		default:
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	logger.Info("Notification delivered")
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck reports liveness for external probing. No side effects.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := h.store.Health(r.Context()); err != nil {
		status["dedup_status"] = "unhealthy"
		status["dedup_error"] = err.Error()
	} else {
		status["dedup_status"] = "healthy"
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
