package coreerr

import (
	"net/http"
	"testing"

	"modelrt/pkg/types"
)

func TestPredicatesMatchConstructors(t *testing.T) {
	cases := []struct {
		err  *CoreError
		pred func(error) bool
	}{
		{ModelNotFound("llama3"), IsModelNotFound},
		{VerifyFailed("model.gguf", "aa", "bb"), IsVerifyFailed},
		{RuntimeNotAvailable("no candidates", 3), IsRuntimeNotAvailable},
		{UnsupportedPlatform("llama3", "ios"), IsUnsupportedPlatform},
		{InsufficientMemory(5000, 3000), IsInsufficientMemory},
		{TaskTimeout("t1"), IsTaskTimeout},
		{TaskCancelled("t1"), IsTaskCancelled},
		{DownloadFailed("model.gguf", nil), IsDownloadFailed},
		{InvalidModelFormat("missing sha256"), IsInvalidModelFormat},
		{ConfigError("bad cache dir"), IsConfigError},
	}
	for _, tc := range cases {
		if !tc.pred(tc.err) {
			t.Errorf("predicate false for code %s", tc.err.Detail.Code)
		}
	}
}

func TestRetriabilityMatchesTaxonomy(t *testing.T) {
	if ModelNotFound("x").Detail.Retriable {
		t.Fatalf("MODEL_NOT_FOUND must not be retriable")
	}
	if !VerifyFailed("a", "b", "c").Detail.Retriable {
		t.Fatalf("MODEL_VERIFY_FAILED must be retriable")
	}
}

func TestStatusCodeMapping(t *testing.T) {
	want := map[types.ErrorCode]int{
		types.CodeModelNotFound:       http.StatusNotFound,
		types.CodeUnsupportedPlatform: http.StatusBadRequest,
		types.CodeInvalidModelFormat:  http.StatusBadRequest,
		types.CodeConfigError:         http.StatusBadRequest,
		types.CodeInsufficientMemory:  http.StatusServiceUnavailable,
		types.CodeRuntimeNotAvailable: http.StatusServiceUnavailable,
		types.CodeTaskTimeout:         http.StatusGatewayTimeout,
		types.CodeTaskCancelled:       http.StatusConflict,
		types.CodeModelVerifyFailed:   http.StatusBadGateway,
		types.CodeDownloadFailed:      http.StatusBadGateway,
	}
	for code, status := range want {
		e := New(code, "msg", nil)
		if got := e.StatusCode(); got != status {
			t.Errorf("code %s: got status %d, want %d", code, got, status)
		}
	}
}

func TestDiskFullDetails(t *testing.T) {
	e := DiskFull(1000, 200)
	if e.Detail.Details["reason"] != "disk_full" {
		t.Fatalf("expected disk_full reason detail")
	}
	if !IsDownloadFailed(e) {
		t.Fatalf("DiskFull should map to DOWNLOAD_FAILED")
	}
}
