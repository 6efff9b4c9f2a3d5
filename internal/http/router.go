// Package httpx exposes the collector's ingestion and query API.
package httpx

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cylestio/cylestio-local-mini-server/internal/domain"
	"github.com/cylestio/cylestio-local-mini-server/internal/extract"
	"github.com/cylestio/cylestio-local-mini-server/internal/jsonpath"
	"github.com/cylestio/cylestio-local-mini-server/internal/metrics"
	"github.com/cylestio/cylestio-local-mini-server/internal/repository"
	"github.com/cylestio/cylestio-local-mini-server/internal/ws"
)

// EventProcessor is the ingestion boundary's view of the extraction
// pipeline.
type EventProcessor interface {
	Process(ctx context.Context, ev *domain.Event) (*extract.Outcome, error)
	ProcessBatch(ctx context.Context, evs []*domain.Event) ([]*extract.Outcome, error)
}

// Options tune request handling.
type Options struct {
	DefaultQueryRange time.Duration
	StreamHeartbeat   time.Duration
	IngestLimit       int
	IngestWindow      time.Duration
	QueryLimit        int
	QueryWindow       time.Duration
}

const (
	healthCheckTimeout = 2 * time.Second
	maxBatchEvents     = 1000
	defaultListLimit   = 100
	maxListLimit       = 1000
)

// Router wires HTTP endpoints to the processing pipeline and stores.
type Router struct {
	mux         *http.ServeMux
	logger      *slog.Logger
	processor   EventProcessor
	calculators *metrics.Registry
	metricStore repository.MetricStore
	agents      repository.AgentStore
	events      repository.EventReader
	hub         *ws.Hub
	upgrader    websocket.Upgrader
	limiter     RateLimiter
	dbHealth    func(context.Context) error
	opts        Options

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	rateLimitHits      *prometheus.CounterVec
	eventsIngested     *prometheus.CounterVec
	extractorFailures  *prometheus.CounterVec
}

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, processor EventProcessor, calculators *metrics.Registry, metricStore repository.MetricStore, agents repository.AgentStore, events repository.EventReader, hub *ws.Hub, limiter RateLimiter, dbHealth func(context.Context) error, opts Options) *Router {
	if opts.DefaultQueryRange <= 0 {
		opts.DefaultQueryRange = 24 * time.Hour
	}
	if opts.StreamHeartbeat <= 0 {
		opts.StreamHeartbeat = 30 * time.Second
	}
	r := &Router{
		mux:         http.NewServeMux(),
		logger:      logger,
		processor:   processor,
		calculators: calculators,
		metricStore: metricStore,
		agents:      agents,
		events:      events,
		hub:         hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		limiter:  limiter,
		dbHealth: dbHealth,
		opts:     opts,
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	r.mux.HandleFunc("/healthz", r.audit("/healthz", r.handleHealthz))
	r.mux.Handle("/metrics", promhttp.Handler())
	r.mux.HandleFunc("/v1/events", r.audit("/v1/events", r.handleEvents))
	r.mux.HandleFunc("/v1/events/batch", r.audit("/v1/events/batch", r.handleEventBatch))
	r.mux.HandleFunc("/v1/events/stream", r.handleEventStream)
	r.mux.HandleFunc("/v1/agents", r.audit("/v1/agents",
		r.withRateLimit("/v1/agents", r.opts.QueryLimit, r.opts.QueryWindow, rateLimitKeyIP, r.handleAgents)))
	r.mux.HandleFunc("/v1/agents/", r.audit("/v1/agents/{id}",
		r.withRateLimit("/v1/agents/{id}", r.opts.QueryLimit, r.opts.QueryWindow, rateLimitKeyIP, r.handleAgentSubroutes)))
	r.mux.HandleFunc("/v1/metrics", r.audit("/v1/metrics",
		r.withRateLimit("/v1/metrics", r.opts.QueryLimit, r.opts.QueryWindow, rateLimitKeyIP, r.handleMetrics)))
	r.mux.HandleFunc("/v1/metrics/", r.audit("/v1/metrics/{name}",
		r.withRateLimit("/v1/metrics/{name}", r.opts.QueryLimit, r.opts.QueryWindow, rateLimitKeyIP, r.handleMetricByName)))
}

// eventPayload is the ingestion wire format.
type eventPayload struct {
	Timestamp      string         `json:"timestamp"`
	AgentID        string         `json:"agent_id"`
	EventType      string         `json:"event_type"`
	Level          string         `json:"level"`
	Channel        string         `json:"channel"`
	Direction      string         `json:"direction"`
	SessionID      string         `json:"session_id"`
	DurationMS     *float64       `json:"duration_ms"`
	Data           map[string]any `json:"data"`
	CallerFile     string         `json:"caller_file"`
	CallerLine     int            `json:"caller_line"`
	CallerFunction string         `json:"caller_function"`
	Alert          string         `json:"alert"`
}

func (p *eventPayload) toDomain() (*domain.Event, error) {
	agentID := strings.TrimSpace(p.AgentID)
	if agentID == "" {
		return nil, errors.New("agent_id is required")
	}
	eventType := strings.TrimSpace(p.EventType)
	if eventType == "" {
		return nil, errors.New("event_type is required")
	}
	if p.DurationMS != nil && *p.DurationMS < 0 {
		return nil, errors.New("duration_ms must be non-negative")
	}
	ev := &domain.Event{
		AgentID:        agentID,
		EventType:      eventType,
		Level:          strings.TrimSpace(p.Level),
		Channel:        strings.TrimSpace(p.Channel),
		Direction:      strings.TrimSpace(p.Direction),
		SessionID:      strings.TrimSpace(p.SessionID),
		DurationMS:     p.DurationMS,
		Data:           p.Data,
		CallerFile:     p.CallerFile,
		CallerLine:     p.CallerLine,
		CallerFunction: p.CallerFunction,
		Alert:          strings.TrimSpace(p.Alert),
	}
	if p.Timestamp != "" {
		ts := jsonpath.AsTime(p.Timestamp, time.Time{})
		if ts.IsZero() {
			return nil, fmt.Errorf("invalid timestamp %q", p.Timestamp)
		}
		ev.Timestamp = ts.UTC()
	}
	return ev, nil
}

func (r *Router) handleEvents(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodPost:
		r.handleIngest(w, req)
	case http.MethodGet:
		r.handleListEvents(w, req)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleIngest(w http.ResponseWriter, req *http.Request) {
	var payload eventPayload
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	ev, err := payload.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := "agent:" + ev.AgentID
	decision := r.limiter.Allow(key, r.opts.IngestLimit, r.opts.IngestWindow)
	r.applyRateHeaders(w, r.opts.IngestLimit, decision)
	if !decision.allowed {
		r.recordRateLimitHit("/v1/events", "agent")
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	outcome, err := r.processor.Process(req.Context(), ev)
	if err != nil {
		r.recordIngest(ev.EventType, false)
		writeError(w, http.StatusInternalServerError, "event processing failed")
		return
	}
	r.recordIngest(ev.EventType, true)
	for _, name := range outcome.Failed() {
		r.recordExtractorFailure(name)
	}
	if r.hub != nil {
		r.hub.BroadcastEvent(ev)
	}
	writeJSON(w, http.StatusCreated, ingestResponse(outcome))
}

// ingestResponse treats partial extraction as success; failed
// extractors are diagnostics, never a reason to reject the event.
func ingestResponse(outcome *extract.Outcome) map[string]any {
	resp := map[string]any{
		"status":        "ok",
		"event_id":      outcome.EventID,
		"processing_id": outcome.ProcessingID,
	}
	if failed := outcome.Failed(); len(failed) > 0 {
		resp["failed_extractors"] = failed
	}
	return resp
}

func (r *Router) handleEventBatch(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		Events []eventPayload `json:"events"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(payload.Events) == 0 {
		writeError(w, http.StatusBadRequest, "events list is empty")
		return
	}
	if len(payload.Events) > maxBatchEvents {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("batch exceeds %d events", maxBatchEvents))
		return
	}

	results := make([]map[string]any, len(payload.Events))
	evs := make([]*domain.Event, 0, len(payload.Events))
	slots := make([]int, 0, len(payload.Events))
	for i := range payload.Events {
		ev, err := payload.Events[i].toDomain()
		if err != nil {
			results[i] = map[string]any{"status": "error", "error": err.Error()}
			continue
		}
		evs = append(evs, ev)
		slots = append(slots, i)
	}

	// A nil outcome marks the events whose transaction failed; the rest
	// of the batch is already committed.
	outcomes, err := r.processor.ProcessBatch(req.Context(), evs)
	if err != nil {
		r.logger.Warn("batch processed with failures", "error", err)
	}
	processed := 0
	for j, ev := range evs {
		outcome := outcomes[j]
		if outcome == nil {
			r.recordIngest(ev.EventType, false)
			results[slots[j]] = map[string]any{"status": "error", "error": "event processing failed"}
			continue
		}
		r.recordIngest(ev.EventType, true)
		for _, name := range outcome.Failed() {
			r.recordExtractorFailure(name)
		}
		if r.hub != nil {
			r.hub.BroadcastEvent(ev)
		}
		processed++
		results[slots[j]] = ingestResponse(outcome)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"processed": processed,
		"failed":    len(results) - processed,
		"results":   results,
	})
}

func (r *Router) handleListEvents(w http.ResponseWriter, req *http.Request) {
	f, err := r.filterFromQuery(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, offset := pagination(req)
	events, err := r.events.ListEvents(req.Context(), f.Store(), limit, offset)
	if err != nil {
		r.logger.Error("list events failed", "error", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	out := make([]map[string]any, 0, len(events))
	for i := range events {
		out = append(out, eventJSON(&events[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": out, "count": len(out)})
}

func eventJSON(ev *domain.Event) map[string]any {
	out := map[string]any{
		"id":         ev.ID,
		"timestamp":  ev.Timestamp.UTC().Format(time.RFC3339Nano),
		"level":      ev.Level,
		"agent_id":   ev.AgentID,
		"event_type": ev.EventType,
		"channel":    ev.Channel,
	}
	if ev.Direction != "" {
		out["direction"] = ev.Direction
	}
	if ev.SessionID != "" {
		out["session_id"] = ev.SessionID
	}
	if ev.Data != nil {
		out["data"] = ev.Data
	}
	if ev.DurationMS != nil {
		out["duration_ms"] = *ev.DurationMS
	}
	if ev.Alert != "" {
		out["alert"] = ev.Alert
	}
	return out
}

func (r *Router) handleAgents(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	limit, offset := pagination(req)
	agents, err := r.agents.ListAgents(req.Context(), limit, offset)
	if err != nil {
		r.logger.Error("list agents failed", "error", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	out := make([]map[string]any, 0, len(agents))
	for _, a := range agents {
		out = append(out, agentJSON(&a.Agent, a.EventCount))
	}
	writeJSON(w, http.StatusOK, map[string]any{"agents": out, "count": len(out)})
}

func (r *Router) handleAgentSubroutes(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	rest := strings.TrimPrefix(req.URL.Path, "/v1/agents/")
	agentID, sub, _ := strings.Cut(rest, "/")
	if agentID == "" {
		r.notFound(w)
		return
	}
	switch sub {
	case "":
		agent, err := r.agents.GetAgent(req.Context(), agentID)
		if errors.Is(err, repository.ErrNotFound) {
			r.notFound(w)
			return
		}
		if err != nil {
			r.logger.Error("get agent failed", "agent_id", agentID, "error", err)
			writeError(w, http.StatusInternalServerError, "query failed")
			return
		}
		writeJSON(w, http.StatusOK, agentJSON(agent, -1))
	case "summary":
		summary, err := r.agents.GetAgentSummary(req.Context(), agentID)
		if errors.Is(err, repository.ErrNotFound) {
			r.notFound(w)
			return
		}
		if err != nil {
			r.logger.Error("agent summary failed", "agent_id", agentID, "error", err)
			writeError(w, http.StatusInternalServerError, "query failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"agent_id":             summary.AgentID,
			"first_seen":           summary.FirstSeen.UTC().Format(time.RFC3339Nano),
			"last_seen":            summary.LastSeen.UTC().Format(time.RFC3339Nano),
			"event_count_by_type":  summary.EventCountByType,
			"event_count_by_level": summary.EventCountByLevel,
			"avg_response_time_ms": summary.AvgResponseTimeMS,
		})
	default:
		r.notFound(w)
	}
}

func agentJSON(a *domain.Agent, eventCount int64) map[string]any {
	out := map[string]any{
		"agent_id":   a.AgentID,
		"first_seen": a.FirstSeen.UTC().Format(time.RFC3339Nano),
		"last_seen":  a.LastSeen.UTC().Format(time.RFC3339Nano),
	}
	if a.LLMProvider != "" {
		out["llm_provider"] = a.LLMProvider
	}
	if a.AgentType != "" {
		out["agent_type"] = a.AgentType
	}
	if a.Description != "" {
		out["description"] = a.Description
	}
	if a.Configuration != nil {
		out["configuration"] = a.Configuration
	}
	if eventCount >= 0 {
		out["event_count"] = eventCount
	}
	return out
}

func (r *Router) handleMetrics(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	f, err := r.filterFromQuery(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var results map[string]metrics.Outcome
	if names := splitList(req.URL.Query().Get("metrics")); len(names) > 0 {
		results = r.calculators.RunSelected(req.Context(), r.metricStore, names, f)
	} else {
		results = r.calculators.RunAll(req.Context(), r.metricStore, f)
	}

	out := make(map[string]any, len(results))
	for name, outcome := range results {
		if outcome.Err != nil {
			r.logger.Warn("metric calculation failed", "metric", name, "error", outcome.Err)
			out[name] = map[string]any{"error": outcome.Err.Error()}
			continue
		}
		out[name] = outcome.Result
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"metrics":   out,
		"timeframe": timeframeJSON(f),
	})
}

func (r *Router) handleMetricByName(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	name := strings.TrimPrefix(req.URL.Path, "/v1/metrics/")
	calc, ok := r.calculators.ByName(name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown metric %q", name))
		return
	}
	f, err := r.filterFromQuery(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := calc.Calculate(req.Context(), r.metricStore, f)
	if err != nil {
		r.logger.Error("metric calculation failed", "metric", name, "error", err)
		writeError(w, http.StatusInternalServerError, "metric calculation failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"metrics":   result,
		"timeframe": timeframeJSON(f),
	})
}

// filterFromQuery builds the metric filter shared by event listings
// and metric queries. An absent range defaults to the trailing
// configured window ending now.
func (r *Router) filterFromQuery(req *http.Request) (metrics.Filter, error) {
	q := req.URL.Query()
	f := metrics.Filter{
		AgentID:    strings.TrimSpace(q.Get("agent_id")),
		SessionID:  strings.TrimSpace(q.Get("session_id")),
		EventTypes: splitList(q.Get("event_type")),
		Levels:     splitList(q.Get("level")),
	}

	interval, err := metrics.ParseInterval(q.Get("interval"))
	if err != nil {
		return metrics.Filter{}, err
	}
	f.Interval = interval

	if raw := q.Get("end"); raw != "" {
		f.End = jsonpath.AsTime(raw, time.Time{})
		if f.End.IsZero() {
			return metrics.Filter{}, fmt.Errorf("invalid end time %q", raw)
		}
	} else {
		f.End = time.Now().UTC()
	}
	if raw := q.Get("start"); raw != "" {
		f.Start = jsonpath.AsTime(raw, time.Time{})
		if f.Start.IsZero() {
			return metrics.Filter{}, fmt.Errorf("invalid start time %q", raw)
		}
	} else {
		f.Start = f.End.Add(-r.opts.DefaultQueryRange)
	}
	if f.End.Before(f.Start) {
		return metrics.Filter{}, errors.New("end time precedes start time")
	}
	return f, nil
}

func timeframeJSON(f metrics.Filter) map[string]any {
	return map[string]any{
		"start":    f.Start.UTC().Format(time.RFC3339),
		"end":      f.End.UTC().Format(time.RFC3339),
		"interval": string(f.Interval),
	}
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func pagination(req *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(req.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset, _ = strconv.Atoi(req.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (r *Router) handleEventStream(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	agentID := strings.TrimSpace(req.URL.Query().Get("agent_id"))
	if agentID == "" {
		agentID = ws.AllAgents
	}
	if websocket.IsWebSocketUpgrade(req) {
		r.streamWebSocket(w, req, agentID)
		return
	}
	r.streamSSE(w, req, agentID)
}

func (r *Router) streamWebSocket(w http.ResponseWriter, req *http.Request, agentID string) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	client := ws.NewClient(conn, r.logger)
	r.hub.Register(agentID, client)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	go func() {
		defer func() {
			r.hub.Unregister(agentID, client)
			client.Close()
		}()
		keepalive := time.NewTicker(r.opts.StreamHeartbeat)
		defer keepalive.Stop()
		for {
			select {
			case <-done:
				return
			case <-keepalive.C:
				if err := client.Ping(); err != nil {
					return
				}
			}
		}
	}()
}

func (r *Router) streamSSE(w http.ResponseWriter, req *http.Request, agentID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	client := ws.NewSSEClient(w, flusher, r.logger)
	r.hub.Register(agentID, client)
	defer func() {
		r.hub.Unregister(agentID, client)
		client.Close()
	}()

	heartbeat := time.NewTicker(r.opts.StreamHeartbeat)
	defer heartbeat.Stop()
	for {
		select {
		case <-req.Context().Done():
			return
		case <-heartbeat.C:
			if err := client.Heartbeat(); err != nil {
				return
			}
		}
	}
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
	defer cancel()
	if r.dbHealth != nil {
		if err := r.dbHealth(ctx); err != nil {
			r.logger.Error("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":   "degraded",
				"database": "unreachable",
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (r *Router) audit(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)
		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		if reqID := strings.TrimSpace(req.Header.Get("X-Request-ID")); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
		r.recordRequestMetrics(req.Method, route, status, duration)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := sr.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (r *Router) notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "not found")
}
