package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"jadwalpoli/internal/calendar"
	"jadwalpoli/internal/metrics"
	"jadwalpoli/internal/queue"
)

func (s *HTTPServer) queueKey(w http.ResponseWriter, r *http.Request) (queue.Key, bool) {
	key := queue.Key{
		DoctorCode: r.PathValue("doctor"),
		ClinicCode: r.PathValue("clinic"),
		Date:       r.PathValue("date"),
	}
	if _, err := calendar.ParseDate(key.Date, s.opts.Location); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return queue.Key{}, false
	}
	return key, true
}

// handleQueue returns the current queue view.
// GET /api/queue/{doctor}/{clinic}/{date}
func (s *HTTPServer) handleQueue(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("queue")

	key, ok := s.queueKey(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.poller.FetchOnce(r.Context(), key))
}

// handleQueueStream streams queue views as Server-Sent Events until the client goes away.
// The first event ("watch") carries the id accepted by the refresh endpoint.
// GET /api/queue/{doctor}/{clinic}/{date}/stream
func (s *HTTPServer) handleQueueStream(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("queue_stream")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	key, ok := s.queueKey(w, r)
	if !ok {
		return
	}

	// Only the latest view matters to a slow client.
	updates := make(chan queue.View, 1)
	watch := s.poller.Watch(r.Context(), key, func(v queue.View) {
		select {
		case <-updates:
		default:
		}
		updates <- v
	})
	defer watch.Stop()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, "watch", map[string]string{"id": watch.ID.String()}); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case v := <-updates:
			if err := writeEvent(w, "status", v); err != nil {
				s.logger.Debug().Err(err).Msg("queue stream closed")
				return
			}
			flusher.Flush()
		}
	}
}

// handleRefresh forces an immediate fetch for a streaming watch.
// POST /api/queue/watches/{id}/refresh
func (s *HTTPServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("queue_refresh")

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid watch id")
		return
	}
	watch, err := s.poller.Lookup(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "watch not found")
		return
	}
	watch.Refresh(r.Context())
	writeJSON(w, http.StatusAccepted, map[string]bool{"refreshing": true})
}

func writeEvent(w http.ResponseWriter, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
