package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/redlitmus-in/metersquare-notify/internal/notify"
	"github.com/redlitmus-in/metersquare-notify/internal/presenter/wshub"
	"github.com/redlitmus-in/metersquare-notify/internal/storage"
)

// newRouter exposes the producer inlet and the panel surface. The dispatch
// middleware itself has no wire format; these handlers are the surrounding
// application's glue.
func newRouter(d *notify.Dispatcher, store storage.Store, hub *wshub.Hub) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/ws", hub.ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"queue":   d.QueueLen(),
			"dedup":   d.DedupLen(),
			"clients": hub.ClientCount(),
		})
	})

	r.Route("/api/notify", func(r chi.Router) {
		r.Post("/", func(w http.ResponseWriter, req *http.Request) {
			var ev notify.Event
			if err := json.NewDecoder(req.Body).Decode(&ev); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid event payload"})
				return
			}
			// Best-effort by contract: accepted means handed to the dispatcher,
			// not delivered.
			d.Send(req.Context(), ev)
			writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
		})

		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			if store == nil {
				writeJSON(w, http.StatusOK, []notify.Event{})
				return
			}
			n, _ := strconv.Atoi(req.URL.Query().Get("n"))
			events, err := store.ListRecent(req.Context(), n)
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}
			if events == nil {
				events = []notify.Event{}
			}
			writeJSON(w, http.StatusOK, events)
		})

		r.Post("/{id}/read", func(w http.ResponseWriter, req *http.Request) {
			if err := d.MarkRead(req.Context(), chi.URLParam(req, "id")); err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/read-all", func(w http.ResponseWriter, req *http.Request) {
			if err := d.MarkAllRead(req.Context()); err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Delete("/", func(w http.ResponseWriter, req *http.Request) {
			if err := d.ClearAll(req.Context()); err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
