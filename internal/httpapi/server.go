package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"modelrt/internal/coreerr"
	"modelrt/pkg/types"
)

// NewMux wires the Manifest, Install, Selector, Scheduler and Stream
// components (via Service) into chi routes, keeping the teacher's
// middleware layering: request id, real IP, recoverer, compression, a
// security-header middleware, Prometheus instrumentation, and an
// optional CORS layer, topped with a build-tag-gated swagger mount.
func NewMux(svc *Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}

	r.Get("/v1/models", handleListModels(svc))
	r.Get("/v1/models/{modelID}", handleGetModel(svc))
	r.Post("/v1/models/{modelID}/install", handleInstall(svc))
	r.Post("/v1/models/{modelID}/select", handleSelect(svc))
	r.Post("/v1/generate", handleGenerate(svc))
	r.Get("/v1/tasks/{taskID}", handleTaskStatus(svc))
	r.Delete("/v1/tasks/{taskID}", handleCancelTask(svc))
	r.Get("/v1/stream", handleStreamWS(svc))

	r.Get("/status", handleStatus(svc))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
	})
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	MountSwagger(r)

	return r
}

func handleListModels(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"models": svc.ListModels()})
	}
}

func handleGetModel(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, cerr := svc.GetModel(chi.URLParam(r, "modelID"))
		if cerr != nil {
			writeCoreError(w, cerr)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

// handleInstall streams InstallProgress as NDJSON, one JSON object per
// line, flushing after each event so long-running installs are visible
// to the client incrementally (mirrors the teacher's /infer NDJSON
// framing, generalized from inference tokens to install phases).
func handleInstall(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		modelID := chi.URLParam(r, "modelID")
		version := r.URL.Query().Get("version")

		joinedCtx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()

		progress, cerr := svc.Install(joinedCtx, modelID, version)
		if cerr != nil {
			writeCoreError(w, cerr)
			return
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		flush, _ := w.(http.Flusher)
		enc := json.NewEncoder(w)
		for ev := range progress {
			if err := enc.Encode(ev); err != nil {
				return
			}
			if flush != nil {
				flush.Flush()
			}
			if ev.Terminal() {
				return
			}
		}
	}
}

func handleSelect(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		modelID := chi.URLParam(r, "modelID")
		var hints types.SelectionHints
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
			_ = json.NewDecoder(r.Body).Decode(&hints)
		}
		report, cerr := svc.Select(modelID, hints)
		if cerr != nil {
			writeCoreError(w, cerr)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// handleGenerate submits an LLM generation task and streams StreamEvent
// values as NDJSON. The task's context is not derived from the HTTP
// request, so cancelling the request does not cancel the task; the task id
// is returned in the X-Task-Id header for DELETE /v1/tasks/{taskID}.
func handleGenerate(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var body struct {
			ModelID       string   `json:"modelId"`
			Prompt        string   `json:"prompt"`
			MaxTokens     int      `json:"maxTokens"`
			Temperature   float64  `json:"temperature"`
			TopP          float64  `json:"topP"`
			TopK          int      `json:"topK"`
			Stop          []string `json:"stop"`
			Seed          int64    `json:"seed"`
			RepeatPenalty float64  `json:"repeatPenalty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(body.Prompt) == "" {
			writeJSONError(w, http.StatusBadRequest, "prompt is required")
			return
		}

		joinedCtx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()

		timeout := time.Duration(0)
		if v := r.URL.Query().Get("timeoutSeconds"); v != "" {
			if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
				timeout = time.Duration(secs) * time.Second
			}
		}

		taskID, events, cerr := svc.Generate(joinedCtx, GenerateRequest{
			ModelID:       body.ModelID,
			Prompt:        body.Prompt,
			MaxTokens:     body.MaxTokens,
			Temperature:   body.Temperature,
			TopP:          body.TopP,
			TopK:          body.TopK,
			Stop:          body.Stop,
			Seed:          body.Seed,
			RepeatPenalty: body.RepeatPenalty,
			Timeout:       timeout,
		})
		if cerr != nil {
			writeCoreError(w, cerr)
			return
		}

		w.Header().Set("Content-Type", "application/x-ndjson")
		w.Header().Set("X-Task-Id", taskID)
		flush, _ := w.(http.Flusher)
		enc := json.NewEncoder(w)
		for ev := range events {
			if err := enc.Encode(ev); err != nil {
				return
			}
			if flush != nil {
				flush.Flush()
			}
		}
	}
}

func handleTaskStatus(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, werr, ok := svc.TaskStatus(chi.URLParam(r, "taskID"))
		if !ok {
			writeJSONError(w, http.StatusNotFound, "task not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": status, "error": werr})
	}
}

func handleCancelTask(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !svc.CancelTask(chi.URLParam(r, "taskID")) {
			writeJSONError(w, http.StatusConflict, "task is not cancellable or not found")
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

func handleStatus(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m := svc.Manifest()
		resp := map[string]any{
			"scheduler": svc.Stats(),
			"ready":     svc.Ready(),
		}
		if m != nil {
			resp["manifestVersion"] = m.ContentVersion
			resp["modelCount"] = len(m.Items)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeCoreError(w http.ResponseWriter, cerr *coreerr.CoreError) {
	writeJSONError(w, cerr.StatusCode(), cerr.Error())
}
