package install

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"modelrt/internal/coreerr"
	"modelrt/pkg/types"
)

type staticSource struct{ srv *httptest.Server }

func (s staticSource) URL(item types.ModelItem, a types.Artifact) string {
	return s.srv.URL + "/" + item.ID + "/" + a.Name
}

func sha256Hex(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

func drainTerminal(t *testing.T, ch <-chan types.InstallProgress) types.InstallProgress {
	t.Helper()
	var last types.InstallProgress
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return last
			}
			last = ev
			if ev.Terminal() {
				return ev
			}
		case <-timeout:
			t.Fatal("timed out waiting for terminal install event")
		}
	}
}

func TestInstall_HappyPath(t *testing.T) {
	dir := t.TempDir()
	content := []byte("fake-gguf-bytes")
	mux := http.NewServeMux()
	mux.HandleFunc("/m1/model.gguf", func(w http.ResponseWriter, r *http.Request) { w.Write(content) })
	srv := httptest.NewServer(mux)
	defer srv.Close()

	item := types.ModelItem{
		ID: "m1", Version: "1.0.0",
		RequiredArtifacts: []types.Artifact{
			{Name: "model.gguf", Path: "model.gguf", Size: int64(len(content)), SHA256: sha256Hex(content)},
		},
	}

	p := NewPipeline(dir, staticSource{srv}, nil)
	ch := p.Install(context.Background(), item)
	term := drainTerminal(t, ch)
	if term.Phase != types.PhaseReady {
		t.Fatalf("expected ready, got %s (err=%v)", term.Phase, term.Error)
	}

	l := Layout{CacheDir: dir, ModelID: "m1", Version: "1.0.0"}
	if !l.IsReady() {
		t.Fatalf("expected readiness sentinel on disk")
	}
}

func TestInstall_HashMismatchFails(t *testing.T) {
	dir := t.TempDir()
	content := []byte("fake-gguf-bytes")
	mux := http.NewServeMux()
	mux.HandleFunc("/m1/model.gguf", func(w http.ResponseWriter, r *http.Request) { w.Write(content) })
	srv := httptest.NewServer(mux)
	defer srv.Close()

	item := types.ModelItem{
		ID: "m1", Version: "1.0.0",
		RequiredArtifacts: []types.Artifact{
			{Name: "model.gguf", Path: "model.gguf", Size: int64(len(content)), SHA256: "deadbeef"},
		},
	}

	p := NewPipeline(dir, staticSource{srv}, nil)
	term := drainTerminal(t, p.Install(context.Background(), item))
	if term.Phase != types.PhaseFailed {
		t.Fatalf("expected failed, got %s", term.Phase)
	}
	if term.Error == nil || term.Error.Code != coreerr.VerifyFailed("x", "a", "b").Detail.Code {
		t.Fatalf("expected MODEL_VERIFY_FAILED, got %+v", term.Error)
	}

	l := Layout{CacheDir: dir, ModelID: "m1", Version: "1.0.0"}
	if l.IsReady() {
		t.Fatalf("must not be ready after hash mismatch")
	}
	entries, _ := os.ReadDir(l.VersionDir())
	for _, e := range entries {
		if e.Name() == "model.gguf" {
			t.Fatalf("final artifact must not exist after verify failure")
		}
	}
}

func TestInstall_ConcurrentCallersShareOneInstall(t *testing.T) {
	dir := t.TempDir()
	content := []byte("shared-content")
	var hits int
	mux := http.NewServeMux()
	mux.HandleFunc("/m1/model.gguf", func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write(content)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	item := types.ModelItem{
		ID: "m1", Version: "1.0.0",
		RequiredArtifacts: []types.Artifact{
			{Name: "model.gguf", Path: "model.gguf", Size: int64(len(content)), SHA256: sha256Hex(content)},
		},
	}

	p := NewPipeline(dir, staticSource{srv}, nil)
	ch1 := p.Install(context.Background(), item)
	ch2 := p.Install(context.Background(), item)

	t1 := drainTerminal(t, ch1)
	t2 := drainTerminal(t, ch2)
	if t1.Phase != types.PhaseReady || t2.Phase != types.PhaseReady {
		t.Fatalf("both subscribers should observe ready: %s %s", t1.Phase, t2.Phase)
	}
	if t1.RequestID != t2.RequestID {
		t.Fatalf("joined callers should share the same requestId")
	}
}

func TestInstall_AlreadyReadySkipsDownload(t *testing.T) {
	dir := t.TempDir()
	mux := http.NewServeMux()
	mux.HandleFunc("/m1/model.gguf", func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not re-download an already-ready version")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	item := types.ModelItem{
		ID: "m1", Version: "1.0.0",
		RequiredArtifacts: []types.Artifact{
			{Name: "model.gguf", Path: "model.gguf", Size: 4, SHA256: "aa"},
		},
	}
	l := Layout{CacheDir: dir, ModelID: "m1", Version: "1.0.0"}
	if err := os.MkdirAll(l.VersionDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := l.writeReadySentinel(); err != nil {
		t.Fatal(err)
	}

	p := NewPipeline(dir, staticSource{srv}, nil)
	term := drainTerminal(t, p.Install(context.Background(), item))
	if term.Phase != types.PhaseReady {
		t.Fatalf("expected ready, got %s", term.Phase)
	}
}
