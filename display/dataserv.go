package pulsemon

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	Pm "github.com/maroda/pulsemon/monitor"
	Pp "github.com/maroda/pulsemon/plugin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var Version = "dev"

// SetupMux handles all data serving:
// - Prometheus metric endpoint
// - Websocket pushing dashboard state
// - Version for programmatic use
// - Dashboard state, history, and archived readings
// - The two buttons: mode toggle and query
func (v *View) SetupMux() *mux.Router {
	r := mux.NewRouter()

	r.Handle("/metrics", v.Stats.Handler())
	r.HandleFunc("/ws", v.WebsocketHandler)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(v.StatsMiddleware)
	api.HandleFunc("/version", v.VersionHandler)
	api.HandleFunc("/state", v.StateHandler)
	api.HandleFunc("/history", v.HistoryHandler)
	api.HandleFunc("/readings", v.ReadingsHandler)
	api.HandleFunc("/mode", v.ModeHandler)
	api.HandleFunc("/query", v.QueryHandler)
	api.PathPrefix("/outputs").HandlerFunc(v.OutputControlHandler)

	// Static files for the dashboard page
	r.PathPrefix("/").Handler(http.FileServer(http.Dir("./web/")))

	return r
}

// Serve starts the web server in the background
func (v *View) Serve(addr string) {
	v.server = &http.Server{
		Addr:              addr,
		Handler:           otelhttp.NewHandler(v.SetupMux(), "pulsemon"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("Starting pulsemon web server...", slog.String("Port", addr))
		if err := v.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not start web server", slog.Any("Error", err))
		}
	}()
}

// Shutdown stops the web server if Serve started one
func (v *View) Shutdown(ctx context.Context) error {
	if v.server == nil {
		return nil
	}
	return v.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Could not encode response", slog.Any("error", err))
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (v *View) VersionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": Version})
}

func (v *View) StateHandler(w http.ResponseWriter, r *http.Request) {
	if v.Dash == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "no dashboard")
		return
	}
	writeJSON(w, http.StatusOK, v.Dash.Snapshot())
}

type HistoryResponse struct {
	Session string `json:"session,omitempty"`
	Mode    string `json:"mode"`
	Status  string `json:"status"`
	Code    string `json:"code"`
	Latest  int    `json:"latest"`
	History []int  `json:"history"` // oldest first
}

// HistoryHandler prefers the full monitor history, falling back to the dashboard's
func (v *View) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	if v.Monitor != nil {
		snap := v.Monitor.Snapshot()
		hist := make([]int, len(snap.History))
		for i, h := range snap.History {
			hist[i] = int(h)
		}
		writeJSON(w, http.StatusOK, HistoryResponse{
			Session: snap.Session,
			Mode:    snap.Mode.String(),
			Status:  snap.State.String(),
			Code:    string(snap.State.Char()),
			Latest:  int(snap.Latest),
			History: hist,
		})
		return
	}

	if v.Dash == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "no history source")
		return
	}
	ds := v.Dash.Snapshot()
	writeJSON(w, http.StatusOK, HistoryResponse{
		Mode:    ds.ModeName,
		Status:  ds.Status,
		Code:    ds.Code,
		Latest:  ds.Latest,
		History: ds.Data,
	})
}

// ModeHandler is button 1
func (v *View) ModeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "invalid method, use POST")
		return
	}
	if v.Monitor == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "no monitor attached")
		return
	}
	mode := v.Monitor.SwitchMode()
	writeJSON(w, http.StatusOK, map[string]any{"mode": mode.String(), "code": int(mode)})
}

// QueryHandler is button 2, it answers only in Query mode
func (v *View) QueryHandler(w http.ResponseWriter, r *http.Request) {
	if v.Monitor == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "no monitor attached")
		return
	}

	value, err := v.Monitor.Query()
	switch {
	case errors.Is(err, Pm.ErrNotQueryMode):
		writeJSONError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, Pm.ErrEmpty):
		writeJSONError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	v.Monitor.Renderer.RenderValue(value, Pm.Digits(value), true, true)
	writeJSON(w, http.StatusOK, map[string]int{"bpm": int(value)})
}

// ReadingsHandler answers from the archive.
// ?since=10m is relative to now, ?from=&to= take RFC3339 times.
func (v *View) ReadingsHandler(w http.ResponseWriter, r *http.Request) {
	if v.Archive == nil {
		writeJSONError(w, http.StatusNotFound, "no archive output enabled")
		return
	}

	now := time.Now()
	from, to := now.Add(-time.Hour), now.Add(time.Second)
	q := r.URL.Query()
	if s := q.Get("since"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid since: "+err.Error())
			return
		}
		from = now.Add(-d)
	}
	if s := q.Get("from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid from: "+err.Error())
			return
		}
		from = t
	}
	if s := q.Get("to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid to: "+err.Error())
			return
		}
		to = t
	}

	// unflushed readings would otherwise be missing
	if err := v.Archive.Flush(); err != nil {
		slog.Error("Archive flush failed", slog.Any("error", err))
	}
	readings, err := v.Archive.QueryRange(from, to)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]Pp.ReadingJSON, len(readings))
	for i, rd := range readings {
		out[i] = Pp.ToJSON(rd)
	}
	writeJSON(w, http.StatusOK, out)
}

// OutputControlHandler takes POST /api/outputs/{type|flush}
func (v *View) OutputControlHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "invalid method, use POST")
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 3 {
		writeJSONError(w, http.StatusBadRequest, "invalid path, need /api/outputs/{control}")
		return
	}

	if v.Monitor == nil || len(v.Monitor.OutputTypes()) == 0 {
		writeJSONError(w, http.StatusInternalServerError, "no output configured")
		return
	}

	switch parts[2] {
	case "type":
		writeJSON(w, http.StatusOK, map[string][]string{"outputs": v.Monitor.OutputTypes()})
	case "flush":
		if err := v.Monitor.FlushOutputs(); err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "FLUSHED"})
	default:
		writeJSONError(w, http.StatusBadRequest, "invalid control: "+parts[2])
	}
}

type RespWriter struct {
	http.ResponseWriter
	Status int
}

func (w *RespWriter) WriteHeader(status int) {
	w.Status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *RespWriter) Write(b []byte) (int, error) {
	return w.ResponseWriter.Write(b)
}

func (v *View) StatsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := &RespWriter{
			ResponseWriter: w,
			Status:         200,
		}
		next.ServeHTTP(wrapped, r)

		v.Stats.RecWWW(strconv.Itoa(wrapped.Status), r.Method)
	})
}
