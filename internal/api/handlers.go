package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	gwebsocket "github.com/gorilla/websocket"
	"go.uber.org/zap"

	"siem-anomaly-gateway/internal/auth"
	"siem-anomaly-gateway/internal/data"
	"siem-anomaly-gateway/internal/metrics"
	"siem-anomaly-gateway/internal/query"
	"siem-anomaly-gateway/internal/refresh"
	"siem-anomaly-gateway/internal/storage"
	"siem-anomaly-gateway/internal/websocket"
)

var upgrader = gwebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // dashboard is served alongside
}

// ScoreDefaults are the slider bounds handed to consumers that do not pass
// an explicit score range.
type ScoreDefaults struct {
	Min float64
	Max float64
}

type Handler struct {
	store     *storage.EventStore
	engine    *query.Engine
	scheduler *refresh.Scheduler
	hub       *websocket.Hub
	auth      *auth.Manager
	scores    ScoreDefaults
	log       *zap.Logger
}

func NewHandler(store *storage.EventStore, engine *query.Engine, scheduler *refresh.Scheduler, hub *websocket.Hub, authMgr *auth.Manager, scores ScoreDefaults, log *zap.Logger) *Handler {
	return &Handler{
		store:     store,
		engine:    engine,
		scheduler: scheduler,
		hub:       hub,
		auth:      authMgr,
		scores:    scores,
		log:       log,
	}
}

// AlertRecord is one filtered event annotated with its severity for
// display.
type AlertRecord struct {
	Timestamp   time.Time     `json:"timestamp"`
	SampleIndex int           `json:"sample_index"`
	Score       float64       `json:"score"`
	Severity    data.Severity `json:"severity"`
	Anomalous   bool          `json:"anomalous"`
}

// ViewResponse is the query seam's answer: the filtered view plus its
// summary, with enough freshness context for the consumer to render a
// stale-data or no-data state.
type ViewResponse struct {
	NoData      bool                `json:"no_data"`
	Generation  uint64              `json:"generation"`
	RefreshedAt time.Time           `json:"refreshed_at"`
	Stale       bool                `json:"stale"`
	Summary     data.MetricsSummary `json:"summary"`
	Alerts      []AlertRecord       `json:"alerts"`
}

// HandleView runs a consumer FilterSpec against the current snapshot. Query
// parameters: range (15m|1h|6h|24h|all) or cutoff (RFC3339, wins over
// range), min_score, max_score, severity (comma-separated), label
// (all|normal|anomalous).
func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	spec, err := h.specFromQuery(r)
	if err != nil {
		metrics.FilterQueriesTotal.WithLabelValues("invalid_spec").Inc()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	snap := h.store.Snapshot()
	if !snap.Populated() {
		// Never-loaded store: explicit no-data state, distinct from "no
		// alerts match the filters".
		metrics.FilterQueriesTotal.WithLabelValues("no_data").Inc()
		writeJSON(w, http.StatusOK, ViewResponse{NoData: true, Alerts: []AlertRecord{}})
		return
	}

	filtered := h.engine.Apply(snap, spec)
	status := h.scheduler.Status()

	alerts := make([]AlertRecord, len(filtered))
	for i, ev := range filtered {
		alerts[i] = AlertRecord{
			Timestamp:   ev.Timestamp,
			SampleIndex: ev.SampleIndex,
			Score:       ev.Score,
			Severity:    h.engine.Classify(ev.Score),
			Anomalous:   ev.Anomalous,
		}
	}

	metrics.FilterQueriesTotal.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, ViewResponse{
		Generation:  snap.Generation,
		RefreshedAt: snap.LoadedAt,
		Stale:       status.Stale,
		Summary:     query.Summarize(snap, filtered),
		Alerts:      alerts,
	})
}

func (h *Handler) specFromQuery(r *http.Request) (query.Spec, error) {
	q := r.URL.Query()
	now := time.Now()

	var cutoff time.Time
	if raw := q.Get("cutoff"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return query.Spec{}, err
		}
		cutoff = t
	} else {
		t, err := query.ResolveRange(q.Get("range"), now)
		if err != nil {
			return query.Spec{}, err
		}
		cutoff = t
	}

	minScore, err := floatParam(q.Get("min_score"), h.scores.Min)
	if err != nil {
		return query.Spec{}, err
	}
	maxScore, err := floatParam(q.Get("max_score"), h.scores.Max)
	if err != nil {
		return query.Spec{}, err
	}

	severities, err := query.ParseSeverities(q.Get("severity"))
	if err != nil {
		return query.Spec{}, err
	}
	label, err := query.ParseLabel(q.Get("label"))
	if err != nil {
		return query.Spec{}, err
	}

	return query.NewSpec(cutoff, minScore, maxScore, severities, label)
}

func floatParam(raw string, fallback float64) (float64, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(raw, 64)
}

// HandleStatus reports data freshness: last attempt/success, generation and
// the staleness flag the presentation layer renders.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.scheduler.Status())
}

// HandleRefresh triggers a cycle outside the regular cadence. A trigger
// landing while a cycle is in flight is coalesced, which the response
// reports.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	triggered := h.scheduler.TriggerRefresh()
	writeJSON(w, http.StatusAccepted, map[string]bool{"triggered": triggered})
}

// HandleLogin exchanges the dashboard password for a session JWT.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if err := h.auth.CheckDashboardPassword(body.Password); err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	token, err := h.auth.IssueJWT()
	if err != nil {
		h.log.Error("issuing session token", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// HandleWebSocket upgrades the connection, registers the client with the
// hub and sends it the latest published view so it does not wait for the
// next cycle.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := websocket.NewClient(h.hub, conn, h.log)
	h.hub.Register(client)
	go client.WritePump()
	go client.ReadPump()

	if view := h.scheduler.View(); view.Generation > 0 {
		if b, err := json.Marshal(websocket.Envelope{Type: "view", Payload: view}); err == nil {
			client.Send(b)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
