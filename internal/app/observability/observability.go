package observability

import (
	"database/sql"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"topikbank/internal/auth"
)

type key struct {
	Method string
	Path   string
	Status int
}

type stat struct {
	Count     int64
	LatencyMS float64
}

type importStats struct {
	Previews       int64
	ExamsPreviewed int64
	Questions      int64
	RowErrors      int64
	Patches        int64
	SlotsChanged   int64
	SlotsMissing   int64
}

type Collector struct {
	db     *sql.DB
	logger *zap.Logger

	mu           sync.RWMutex
	requestStats map[key]stat
	imports      importStats
	startedAt    time.Time
}

func NewCollector(db *sql.DB, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		db:           db,
		logger:       logger,
		requestStats: make(map[key]stat),
		startedAt:    time.Now(),
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		r = r.WithContext(auth.TrackAdmin(r.Context()))
		next.ServeHTTP(rec, r)

		latencyMS := float64(time.Since(start).Microseconds()) / 1000.0
		path := normalizedPath(r.URL.Path)

		c.mu.Lock()
		k := key{Method: r.Method, Path: path, Status: rec.status}
		s := c.requestStats[k]
		s.Count++
		s.LatencyMS += latencyMS
		c.requestStats[k] = s
		c.mu.Unlock()

		fields := []zap.Field{
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", path),
			zap.Int("status", rec.status),
			zap.Float64("latency_ms", latencyMS),
			zap.String("remote_ip", strings.TrimSpace(r.RemoteAddr)),
		}
		if id := extractExamID(r.URL.Path); id != "" {
			fields = append(fields, zap.String("exam_id", id))
		}
		if a, ok := auth.CurrentAdmin(r.Context()); ok {
			fields = append(fields, zap.String("admin_key", a.KeyID))
		}
		c.logger.Info("http request", fields...)
	})
}

// RecordImport counts one workbook preview.
func (c *Collector) RecordImport(exams, questions, rowErrors int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.imports.Previews++
	c.imports.ExamsPreviewed += int64(exams)
	c.imports.Questions += int64(questions)
	c.imports.RowErrors += int64(rowErrors)
}

// RecordPatch counts one partial update.
func (c *Collector) RecordPatch(changed, missing int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.imports.Patches++
	c.imports.SlotsChanged += int64(changed)
	c.imports.SlotsMissing += int64(missing)
}

func (c *Collector) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	c.mu.RLock()
	statsCopy := make(map[key]stat, len(c.requestStats))
	for k, v := range c.requestStats {
		statsCopy[k] = v
	}
	imports := c.imports
	startedAt := c.startedAt
	c.mu.RUnlock()

	keys := make([]key, 0, len(statsCopy))
	for k := range statsCopy {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Method != keys[j].Method {
			return keys[i].Method < keys[j].Method
		}
		if keys[i].Path != keys[j].Path {
			return keys[i].Path < keys[j].Path
		}
		return keys[i].Status < keys[j].Status
	})

	var m metricWriter
	m.comment("topikbank observability metrics")
	m.gauge("topikbank_uptime_seconds", "", fmt.Sprintf("%.0f", time.Since(startedAt).Seconds()))

	for _, k := range keys {
		s := statsCopy[k]
		labels := fmt.Sprintf("method=%q,path=%q,status=\"%d\"", k.Method, k.Path, k.Status)
		avg := 0.0
		if s.Count > 0 {
			avg = s.LatencyMS / float64(s.Count)
		}
		m.counter("topikbank_http_requests_total", labels, strconv.FormatInt(s.Count, 10))
		m.counter("topikbank_http_request_latency_ms_sum", labels, fmt.Sprintf("%.3f", s.LatencyMS))
		m.gauge("topikbank_http_request_latency_ms_avg", labels, fmt.Sprintf("%.3f", avg))
	}

	m.counter("topikbank_import_previews_total", "", strconv.FormatInt(imports.Previews, 10))
	m.counter("topikbank_import_exams_total", "", strconv.FormatInt(imports.ExamsPreviewed, 10))
	m.counter("topikbank_import_questions_total", "", strconv.FormatInt(imports.Questions, 10))
	m.counter("topikbank_import_row_errors_total", "", strconv.FormatInt(imports.RowErrors, 10))
	m.counter("topikbank_patch_requests_total", "", strconv.FormatInt(imports.Patches, 10))
	m.counter("topikbank_patch_slots_changed_total", "", strconv.FormatInt(imports.SlotsChanged, 10))
	m.counter("topikbank_patch_slots_missing_total", "", strconv.FormatInt(imports.SlotsMissing, 10))

	if c.db != nil {
		dbs := c.db.Stats()
		m.gauge("topikbank_db_open_connections", "", strconv.Itoa(dbs.OpenConnections))
		m.gauge("topikbank_db_in_use_connections", "", strconv.Itoa(dbs.InUse))
		m.gauge("topikbank_db_idle_connections", "", strconv.Itoa(dbs.Idle))
		m.counter("topikbank_db_wait_count", "", strconv.FormatInt(dbs.WaitCount, 10))
		m.counter("topikbank_db_wait_duration_ms", "", fmt.Sprintf("%.3f", float64(dbs.WaitDuration.Microseconds())/1000.0))
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(m.sb.String()))
}

// metricWriter emits the text exposition format. A TYPE line is written once per metric name.
type metricWriter struct {
	sb    strings.Builder
	typed map[string]bool
}

func (m *metricWriter) comment(text string) {
	m.sb.WriteString("# " + text + "\n")
}

func (m *metricWriter) counter(name, labels, value string) { m.sample(name, "counter", labels, value) }

func (m *metricWriter) gauge(name, labels, value string) { m.sample(name, "gauge", labels, value) }

func (m *metricWriter) sample(name, typ, labels, value string) {
	if m.typed == nil {
		m.typed = make(map[string]bool)
	}
	if !m.typed[name] {
		m.typed[name] = true
		m.sb.WriteString("# TYPE " + name + " " + typ + "\n")
	}
	m.sb.WriteString(name)
	if labels != "" {
		m.sb.WriteString("{" + labels + "}")
	}
	m.sb.WriteString(" " + value + "\n")
}

// normalizedPath replaces numeric and UUID segments with {id} so that metrics are keyed by
// route rather than by record.
func normalizedPath(path string) string {
	if path == "" {
		return "/"
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if isID(p) {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}

func isID(segment string) bool {
	if _, err := strconv.ParseInt(segment, 10, 64); err == nil {
		return true
	}
	_, err := uuid.Parse(segment)
	return err == nil
}

func extractExamID(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i := 0; i < len(parts)-1; i++ {
		if parts[i] == "exams" && parts[i+1] != "" {
			return parts[i+1]
		}
	}
	return ""
}
