package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/projectcompass/compass/internal/config"
	"github.com/projectcompass/compass/internal/core/domain"
	"github.com/projectcompass/compass/internal/core/monitor"
	"github.com/projectcompass/compass/internal/core/ports"
	"github.com/projectcompass/compass/internal/observability/metrics"
)

const serviceName = "api"

type Router struct {
	cfg      config.Config
	ingestUC ports.InquiryIngestor
	reader   ports.InquiryReader
	store    ports.InquiryRepository

	collector     *monitor.Collector
	serverMetrics *metrics.HTTPServerMetrics
	ingestLimiter *rate.Limiter
}

func NewRouter(
	cfg config.Config,
	ingestUC ports.InquiryIngestor,
	store ports.InquiryRepository,
	collector *monitor.Collector,
	serverMetrics *metrics.HTTPServerMetrics,
) *Router {
	rt := &Router{
		cfg:           cfg,
		ingestUC:      ingestUC,
		reader:        store,
		store:         store,
		collector:     collector,
		serverMetrics: serverMetrics,
	}
	if cfg.APIRateLimitRPS > 0 {
		burst := cfg.APIRateLimitBurst
		if burst <= 0 {
			burst = cfg.APIRateLimitRPS
		}
		rt.ingestLimiter = rate.NewLimiter(rate.Limit(cfg.APIRateLimitRPS), burst)
	}
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/inquiries/email", rt.ingestEmail)
	mux.HandleFunc("/v1/inquiries", rt.listInquiries)
	mux.HandleFunc("/v1/inquiries/export", rt.exportInquiries)
	mux.HandleFunc("/v1/inquiries/", rt.inquiryByID)
	mux.HandleFunc("/v1/system/status", rt.systemStatus)
	if rt.serverMetrics != nil {
		mux.Handle("/metrics", rt.serverMetrics.Handler())
	}

	var handler http.Handler = mux
	if rt.serverMetrics != nil {
		handler = rt.serverMetrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	if rt.cfg.APIMaxConcurrent > 0 {
		handler = backpressureMiddleware(handler, rt.cfg.APIMaxConcurrent, 50*time.Millisecond)
	}
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) ingestEmail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if rt.ingestLimiter != nil && !rt.ingestLimiter.Allow() {
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "ingest rate limit exceeded"})
		return
	}

	var payload ports.EmailPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	inq, err := rt.ingestUC.Ingest(r.Context(), payload)
	if err != nil {
		rt.recordIngest(false)
		writeError(w, err)
		return
	}

	rt.recordIngest(true)
	writeJSON(w, http.StatusAccepted, inq)
}

func (rt *Router) inquiryByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/inquiries/")
	if id, ok := strings.CutSuffix(path, "/status"); ok {
		rt.updateStatus(w, r, id)
		return
	}

	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if path == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "inquiry id is required"})
		return
	}

	inq, err := rt.reader.GetByID(r.Context(), path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inq)
}

func (rt *Router) updateStatus(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPut {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "inquiry id is required"})
		return
	}

	var req struct {
		Status domain.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if !domain.ValidStatus(req.Status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown status " + string(req.Status)})
		return
	}

	if err := rt.store.UpdateStatus(r.Context(), id, req.Status); err != nil {
		writeError(w, err)
		return
	}
	if rt.serverMetrics != nil {
		rt.serverMetrics.RecordStatusChange(serviceName, string(req.Status))
	}
	if rt.collector != nil {
		rt.collector.RecordActivity("status_changed", map[string]string{
			"inquiry_id": id,
			"status":     string(req.Status),
		})
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(req.Status)})
}

func (rt *Router) listInquiries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	items, err := rt.reader.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	total, err := rt.reader.Count(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items":  items,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

func (rt *Router) systemStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	byStatus := make(map[domain.Status]int, len(domain.Statuses))
	total := 0
	for _, status := range domain.Statuses {
		count, err := rt.reader.Count(r.Context(), domain.InquiryFilter{Status: status})
		if err != nil {
			writeError(w, err)
			return
		}
		byStatus[status] = count
		total += count
	}

	payload := map[string]any{
		"store": map[string]any{
			"total":     total,
			"by_status": byStatus,
		},
	}
	if rt.collector != nil {
		payload["pipeline"] = rt.collector.Snapshot()
	}
	writeJSON(w, http.StatusOK, payload)
}

func filterFromQuery(r *http.Request) (domain.InquiryFilter, error) {
	q := r.URL.Query()
	filter := domain.InquiryFilter{
		Status:   domain.Status(q.Get("status")),
		Category: domain.Category(q.Get("category")),
		Priority: domain.Priority(q.Get("priority")),
	}
	if filter.Status != "" && !domain.ValidStatus(filter.Status) {
		return domain.InquiryFilter{}, errInvalidQuery("status", string(filter.Status))
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return domain.InquiryFilter{}, errInvalidQuery("limit", v)
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return domain.InquiryFilter{}, errInvalidQuery("offset", v)
		}
		filter.Offset = n
	}
	return filter, nil
}

func (rt *Router) recordIngest(accepted bool) {
	if rt.serverMetrics != nil {
		rt.serverMetrics.RecordIngest(serviceName, accepted)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
