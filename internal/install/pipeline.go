package install

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"modelrt/internal/coreerr"
	"modelrt/pkg/types"
)

// ArtifactSource resolves where an artifact's bytes are fetched from; the
// pipeline is agnostic to transport so tests can substitute a local
// fixture server without touching state-machine logic.
type ArtifactSource interface {
	URL(item types.ModelItem, artifact types.Artifact) string
}

// Pipeline drives installs for a single cache directory (§4.1 C3).
type Pipeline struct {
	CacheDir string
	Source   ArtifactSource
	Client   *http.Client
	Evictor  *Evictor

	flight flightGroup
}

// flightGroup is the two-layer single-flight protection of §4.1: an
// in-process singleflight.Group (mutex-guarded registry of in-flight
// keys) guarding a broadcaster-per-key fan-out, plus a file lock on
// {cacheDir}/{modelId}/{version}/.lock serializing cross-process attempts.
type flightGroup struct {
	group singleflight.Group
	reg   *flightRegistry
}

// NewPipeline constructs a Pipeline ready to accept Install calls.
func NewPipeline(cacheDir string, source ArtifactSource, evictor *Evictor) *Pipeline {
	return &Pipeline{
		CacheDir: cacheDir,
		Source:   source,
		Client:   http.DefaultClient,
		Evictor:  evictor,
		flight:   flightGroup{reg: newFlightRegistry()},
	}
}

// Install drives (or joins) the install for item, returning a channel that
// delivers InstallProgress events culminating in exactly one terminal
// event. Concurrent callers for the same (modelId, version) share the
// first in-flight attempt (§4.1 "Single-flight").
func (p *Pipeline) Install(ctx context.Context, item types.ModelItem) <-chan types.InstallProgress {
	key := item.Key()
	b, owner := p.flight.reg.join(key)
	if owner {
		requestID := uuid.NewString()
		go p.flight.group.Do(key, func() (any, error) {
			p.run(ctx, item, requestID, b)
			p.flight.reg.release(key)
			return nil, nil
		})
	}
	return b.subscribe()
}

func (p *Pipeline) run(ctx context.Context, item types.ModelItem, requestID string, b *broadcaster) {
	l := Layout{CacheDir: p.CacheDir, ModelID: item.ID, Version: item.Version}

	if err := os.MkdirAll(l.VersionDir(), 0o755); err != nil {
		p.fail(b, l, requestID, coreerr.DownloadFailed("mkdir", err))
		return
	}

	unlock, err := acquireFileLock(l.LockPath())
	if err != nil {
		p.fail(b, l, requestID, coreerr.DownloadFailed("lock", err))
		return
	}
	defer unlock()

	if l.IsReady() {
		p.emit(b, l, requestID, types.PhaseReady, totalSize(item), totalSize(item), "")
		return
	}

	total := totalSize(item)
	var received int64

	p.emit(b, l, requestID, types.PhaseDownloading, 0, total, "")
	coal := newCoalescer(total)
	for _, a := range item.RequiredArtifacts {
		if ctx.Err() != nil {
			p.cancel(b, l, requestID)
			return
		}
		artifactOffset := received
		err := fetchAndVerify(p.Client, p.Source.URL(item, a), l, a, func(r int64) {
			now := time.Now()
			cur := artifactOffset + r
			if coal.shouldEmit(cur, now) {
				p.emit(b, l, requestID, types.PhaseDownloading, cur, total, a.Name)
			}
		})
		if err != nil {
			logEvent(zerolog.ErrorLevel, item.ID, item.Version, requestID).Err(err).Str("artifact", a.Name).Msg("install: fetch failed")
			p.failErr(b, l, requestID, err)
			return
		}
		received += a.Size
	}
	p.emit(b, l, requestID, types.PhaseVerifying, total, total, "")

	for _, a := range item.RequiredArtifacts {
		if a.Format != "gguf" {
			continue
		}
		if err := crossCheckGGUF(l.ArtifactPath(a), item, a); err != nil {
			logEvent(zerolog.ErrorLevel, item.ID, item.Version, requestID).Err(err).Str("artifact", a.Name).Msg("install: gguf header cross-check failed")
			p.failErr(b, l, requestID, err)
			return
		}
	}

	needsExtract := false
	for _, a := range item.RequiredArtifacts {
		if a.IsArchive() {
			needsExtract = true
			break
		}
	}
	if needsExtract {
		p.emit(b, l, requestID, types.PhaseExtracting, total, total, "")
		for _, a := range item.RequiredArtifacts {
			if !a.IsArchive() {
				continue
			}
			if err := extractArchive(l, a); err != nil {
				p.failErr(b, l, requestID, err)
				return
			}
		}
		if err := promoteStage(l); err != nil {
			p.failErr(b, l, requestID, coreerr.InvalidModelFormat(err.Error()))
			return
		}
	}

	if err := l.writeReadySentinel(); err != nil {
		p.failErr(b, l, requestID, coreerr.DownloadFailed("sentinel", err))
		return
	}
	if p.Evictor != nil {
		p.Evictor.Touch(item.ID, item.Version, total)
		if err := p.Evictor.EvictUntilFits(); err != nil {
			logEvent(zerolog.WarnLevel, item.ID, item.Version, requestID).Err(err).Msg("install: eviction pass failed")
		}
	}
	logEvent(zerolog.InfoLevel, item.ID, item.Version, requestID).Str("size", humanize.Bytes(uint64(total))).Msg("install: ready")
	p.emit(b, l, requestID, types.PhaseReady, total, total, "")
}

func (p *Pipeline) emit(b *broadcaster, l Layout, requestID string, phase types.InstallPhase, received, total int64, currentFile string) {
	b.publish(types.InstallProgress{
		RequestID:     requestID,
		ModelID:       l.ModelID,
		Version:       l.Version,
		Phase:         phase,
		ReceivedBytes: received,
		TotalBytes:    total,
		Progress:      progressOf(phase, received, total),
		CurrentFile:   currentFile,
	})
}

func (p *Pipeline) failErr(b *broadcaster, l Layout, requestID string, err error) {
	ce, ok := err.(*coreerr.CoreError)
	if !ok {
		ce = coreerr.DownloadFailed("unknown", err)
	}
	p.fail(b, l, requestID, ce)
}

func (p *Pipeline) cancel(b *broadcaster, l Layout, requestID string) {
	ce := coreerr.TaskCancelled(requestID)
	b.publish(types.InstallProgress{
		RequestID: requestID,
		ModelID:   l.ModelID,
		Version:   l.Version,
		Phase:     types.PhaseCancelled,
		Progress:  0,
		Error:     ce.AsWire(),
	})
}

func (p *Pipeline) fail(b *broadcaster, l Layout, requestID string, ce *coreerr.CoreError) {
	wire := ce.AsWire()
	b.publish(types.InstallProgress{
		RequestID: requestID,
		ModelID:   l.ModelID,
		Version:   l.Version,
		Phase:     types.PhaseFailed,
		Progress:  0,
		Error:     wire,
	})
}

func totalSize(item types.ModelItem) int64 {
	var total int64
	for _, a := range item.RequiredArtifacts {
		total += a.Size
	}
	return total
}
