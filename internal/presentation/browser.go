package presentation

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/harvestkit/harvestkit/internal/storage"
)

// BrowserConfig configures the read-only volume browser.
type BrowserConfig struct {
	Port       int    `json:"port"`
	Host       string `json:"host"`
	BasePath   string `json:"base_path"`
	EnableCORS bool   `json:"enable_cors"`
}

// DefaultBrowserConfig returns browser defaults.
func DefaultBrowserConfig() *BrowserConfig {
	return &BrowserConfig{
		Port:       8081,
		Host:       "localhost",
		BasePath:   "/browse",
		EnableCORS: true,
	}
}

// Browser serves a read-only HTTP view of the harvested volumes.
type Browser struct {
	store  storage.Backend
	config *BrowserConfig
}

// NewBrowser creates a volume browser over a storage backend.
func NewBrowser(store storage.Backend, config *BrowserConfig) *Browser {
	if config == nil {
		config = DefaultBrowserConfig()
	}
	return &Browser{
		store:  store,
		config: config,
	}
}

// Start starts the browser server. Blocks until the listener fails.
func (b *Browser) Start() error {
	addr := fmt.Sprintf("%s:%d", b.config.Host, b.config.Port)
	log.Info().Str("address", addr).Str("base_path", b.config.BasePath).
		Msg("Starting volume browser")
	return http.ListenAndServe(addr, b.Handler())
}

// Handler builds the routed handler, exposed separately for tests.
func (b *Browser) Handler() http.Handler {
	router := mux.NewRouter()
	base := router.PathPrefix(b.config.BasePath).Subrouter()

	base.HandleFunc("", b.index).Methods("GET")
	base.HandleFunc("/", b.index).Methods("GET")
	base.HandleFunc("/volumes", b.listVolumes).Methods("GET")
	base.HandleFunc("/volumes/{name}", b.getVolume).Methods("GET")
	base.HandleFunc("/health", b.healthCheck).Methods("GET")

	var handler http.Handler = router
	if b.config.EnableCORS {
		handler = b.corsMiddleware(handler)
	}
	return b.loggingMiddleware(handler)
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>HarvestKit Volumes</title></head>
<body>
<h1>Harvested Volumes</h1>
<table border="1" cellpadding="4">
<tr><th>File</th><th>Query</th><th>Documents</th><th>Words</th><th>Stored</th></tr>
{{range .Volumes}}
<tr>
<td><a href="{{$.BasePath}}/volumes/{{.FileName}}">{{.FileName}}</a></td>
<td>{{.Query}}</td>
<td>{{.Documents}}</td>
<td>{{.Words}}</td>
<td>{{.StoredAt.Format "2006-01-02 15:04"}}</td>
</tr>
{{end}}
</table>
<p>{{len .Volumes}} volumes</p>
</body>
</html>
`))

func (b *Browser) index(w http.ResponseWriter, r *http.Request) {
	infos, err := b.store.ListVolumes(r.Context())
	if err != nil {
		b.sendError(w, http.StatusInternalServerError, "Failed to list volumes", err)
		return
	}
	sort.Slice(infos, func(i, k int) bool {
		return infos[i].StoredAt.After(infos[k].StoredAt)
	})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = indexTemplate.Execute(w, map[string]any{
		"Volumes":  infos,
		"BasePath": b.config.BasePath,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to render volume index")
	}
}

func (b *Browser) listVolumes(w http.ResponseWriter, r *http.Request) {
	infos, err := b.store.ListVolumes(r.Context())
	if err != nil {
		b.sendError(w, http.StatusInternalServerError, "Failed to list volumes", err)
		return
	}
	b.sendJSON(w, map[string]any{
		"volumes": infos,
		"count":   len(infos),
	})
}

func (b *Browser) getVolume(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	data, err := b.store.ReadVolume(r.Context(), name)
	if err != nil {
		b.sendError(w, http.StatusNotFound, "Volume not found", err)
		return
	}

	if strings.HasSuffix(name, ".pdf") {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.Write(data)
}

func (b *Browser) healthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if err := b.store.Health(r.Context()); err != nil {
		status = "degraded"
	}
	b.sendJSON(w, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC(),
	})
}

func (b *Browser) sendJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (b *Browser) sendError(w http.ResponseWriter, status int, message string, err error) {
	log.Error().Err(err).Str("message", message).Int("status", status).Msg("Browser error")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"error":     message,
		"status":    status,
		"timestamp": time.Now().UTC(),
	}
	if err != nil {
		response["details"] = err.Error()
	}
	json.NewEncoder(w).Encode(response)
}

func (b *Browser) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Browser) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.statusCode).
			Dur("duration", time.Since(start)).
			Msg("Browser request")
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
