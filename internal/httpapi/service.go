package httpapi

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"modelrt/internal/adapter"
	"modelrt/internal/coreerr"
	"modelrt/internal/install"
	"modelrt/internal/scheduler"
	"modelrt/internal/selector"
	"modelrt/internal/stream"
	"modelrt/pkg/types"
)

// Service composes the Manifest Model, Install Pipeline, Runtime
// Selector, Task Scheduler, Stream Protocol, and Backend Adapter
// components (C1–C7) behind the narrow surface the HTTP layer needs.
// It mirrors the teacher's manager.Manager role: a single struct other
// transports (HTTP here, a future gRPC/CLI surface) drive.
type Service struct {
	manifest  atomic.Pointer[types.Manifest]
	pipeline  *install.Pipeline
	scheduler *scheduler.Scheduler
	adapters  *adapter.Registry
	probeFn   func() (types.CapabilityProbe, error)
}

func NewService(m *types.Manifest, pipeline *install.Pipeline, sched *scheduler.Scheduler, adapters *adapter.Registry, probeFn func() (types.CapabilityProbe, error)) *Service {
	svc := &Service{pipeline: pipeline, scheduler: sched, adapters: adapters, probeFn: probeFn}
	svc.manifest.Store(m)
	return svc
}

// SetManifest atomically swaps the in-memory manifest. cmd/modelrtd does
// not call it: a manifest.Store hot-reload is not forwarded here, so the
// Service keeps the manifest it was constructed with.
func (s *Service) SetManifest(m *types.Manifest) { s.manifest.Store(m) }

func (s *Service) Manifest() *types.Manifest { return s.manifest.Load() }

func (s *Service) ListModels() []types.ModelItem {
	m := s.manifest.Load()
	if m == nil {
		return nil
	}
	return m.Items
}

func (s *Service) GetModel(id string) (types.ModelItem, *coreerr.CoreError) {
	m := s.manifest.Load()
	if m == nil {
		return types.ModelItem{}, coreerr.ModelNotFound(id)
	}
	item, ok := m.ByID(id)
	if !ok {
		return types.ModelItem{}, coreerr.ModelNotFound(id)
	}
	return item, nil
}

// Install starts (or joins) an install for modelID/version and returns
// the progress stream the caller relays to its transport.
func (s *Service) Install(ctx context.Context, modelID, version string) (<-chan types.InstallProgress, *coreerr.CoreError) {
	m := s.manifest.Load()
	if m == nil {
		return nil, coreerr.ModelNotFound(modelID)
	}
	item, ok := m.ByID(modelID)
	if !ok {
		return nil, coreerr.ModelNotFound(modelID)
	}
	if version != "" {
		item.Version = version
	}
	return s.pipeline.Install(ctx, item), nil
}

// Select runs the Runtime Selector for modelID against the live host
// capability probe, optionally overridden by hints.
func (s *Service) Select(modelID string, hints types.SelectionHints) (types.SelectionReport, *coreerr.CoreError) {
	item, cerr := s.GetModel(modelID)
	if cerr != nil {
		return types.SelectionReport{}, cerr
	}
	probe, err := s.probeFn()
	if err != nil {
		return types.SelectionReport{}, coreerr.ConfigError("capability probe failed: " + err.Error())
	}
	if s.adapters != nil {
		if probe.InstalledBackends == nil {
			probe.InstalledBackends = map[string]string{}
		}
		for _, name := range s.adapters.InstalledBackendNames() {
			if _, ok := probe.InstalledBackends[name]; !ok {
				probe.InstalledBackends[name] = "unknown"
			}
		}
	}
	return selector.Select(item, probe, hints), nil
}

// installedModelPath resolves the on-disk path of item's "model"-role
// artifact under the pipeline's cache directory, requiring the active
// version to already carry the readiness sentinel — Generate must never
// hand a backend a path the install pipeline hasn't verified (§4.1).
func (s *Service) installedModelPath(item types.ModelItem) (string, *coreerr.CoreError) {
	version := item.Version
	if v, ok := install.ActiveVersion(s.pipeline.CacheDir, item.ID); ok {
		version = v
	}
	l := install.Layout{CacheDir: s.pipeline.CacheDir, ModelID: item.ID, Version: version}
	if !l.IsReady() {
		return "", coreerr.ModelNotFound(item.ID + "@" + version + " (not installed)")
	}
	for _, a := range item.RequiredArtifacts {
		if a.Role == types.RoleModel {
			return l.ArtifactPath(a), nil
		}
	}
	return "", coreerr.ConfigError("model " + item.ID + " has no required artifact with role=model")
}

// GenerateRequest is the HTTP-facing shape of an LLM generation request.
type GenerateRequest struct {
	ModelID       string
	Prompt        string
	MaxTokens     int
	Temperature   float64
	TopP          float64
	TopK          int
	Stop          []string
	Seed          int64
	RepeatPenalty float64
	Timeout       time.Duration
}

// Generate submits a TaskLLM to the scheduler and returns a channel of
// StreamEvent values plus the submitted task's ID, so a caller can also
// poll/cancel via the scheduler surface.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (string, <-chan *types.StreamEvent, *coreerr.CoreError) {
	item, cerr := s.GetModel(req.ModelID)
	if cerr != nil {
		return "", nil, cerr
	}
	report, cerr := s.Select(req.ModelID, types.SelectionHints{})
	if cerr != nil {
		return "", nil, cerr
	}
	if report.FinalDecision.Error != nil {
		return "", nil, &coreerr.CoreError{Detail: *report.FinalDecision.Error}
	}
	backend, ok := s.adapters.Lookup(report.FinalDecision.Backend)
	if !ok {
		return "", nil, coreerr.RuntimeNotAvailable("backend not registered: "+report.FinalDecision.Backend, len(report.Candidates))
	}
	modelPath, cerr := s.installedModelPath(item)
	if cerr != nil {
		return "", nil, cerr
	}

	requestID := uuid.NewString()
	out := make(chan *types.StreamEvent, 8)
	taskID := requestID

	t := &scheduler.Task{
		ID:           taskID,
		Type:         types.TaskLLM,
		Priority:     0,
		ResourceType: types.ResourceGPUBound,
		Timeout:      req.Timeout,
		Cancellable:  true,
		Execute: func(taskCtx context.Context) (any, error) {
			defer close(out)
			seq := stream.NewSequencer(requestID, 0, req.Stop)
			params := adapter.Params{
				ModelPath:    modelPath,
				Backend:      report.FinalDecision.Backend,
				Provider:     report.FinalDecision.Provider,
				Threads:      report.FinalDecision.Threads,
				GPULayers:    report.FinalDecision.GPULayers,
				ContextLen:   report.FinalDecision.ContextLen,
				Quantization: report.FinalDecision.Quantization,
			}
			if err := backend.Load(taskCtx, params); err != nil {
				ev := seq.Error(&types.Error{Code: types.CodeRuntimeNotAvailable, Message: err.Error()})
				out <- ev
				return nil, err
			}
			defer backend.Unload(taskCtx)

			genErr := backend.Generate(taskCtx, adapter.GenerateRequest{
				Prompt:        req.Prompt,
				MaxTokens:     req.MaxTokens,
				Temperature:   req.Temperature,
				TopP:          req.TopP,
				TopK:          req.TopK,
				Stop:          req.Stop,
				Seed:          req.Seed,
				RepeatPenalty: req.RepeatPenalty,
			}, func(tok stream.RawToken) {
				if ev, terminal := seq.Delta(tok); ev != nil {
					out <- ev
					if terminal {
						return
					}
				}
			})
			if genErr != nil {
				if taskCtx.Err() != nil {
					for _, ev := range seq.Finish(types.FinishCancel) {
						out <- ev
					}
					return nil, taskCtx.Err()
				}
				out <- seq.Error(&types.Error{Code: types.CodeRuntimeNotAvailable, Message: genErr.Error()})
				return nil, genErr
			}
			for _, ev := range seq.Finish(types.FinishEOS) {
				out <- ev
			}
			return nil, nil
		},
	}
	s.scheduler.Submit(t)
	return taskID, out, nil
}

// TaskStatus reports a submitted task's current status and, once
// terminal, its carried error (nil on success).
func (s *Service) TaskStatus(taskID string) (types.TaskStatus, *types.Error, bool) {
	t, ok := s.scheduler.Task(taskID)
	if !ok {
		return "", nil, false
	}
	_, werr := t.Result()
	return t.Status(), werr, true
}

func (s *Service) CancelTask(taskID string) bool { return s.scheduler.Cancel(taskID) }

func (s *Service) Stats() types.SchedulerStats { return s.scheduler.Stats() }

func (s *Service) Ready() bool { return s.manifest.Load() != nil }
