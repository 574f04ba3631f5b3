// Package coreerr implements the closed error taxonomy of §7: a concrete
// CoreError carrying code, retriability, structured details, and an
// optional suggestion, plus the Is* predicates callers use to branch on
// a specific failure mode without string-matching messages. The pattern
// generalizes the teacher's sentinel-error-plus-predicate style
// (internal/manager/errors.go: tooBusyError/modelNotFoundError) from two
// ad hoc cases to the full ten-code taxonomy.
package coreerr

import (
	"net/http"

	"modelrt/pkg/types"
)

// CoreError is the concrete error value carried on install/selection
// streams and scheduler terminal statuses. It wraps the wire-shaped
// types.Error (field Detail) rather than embedding it, since embedding
// would collide the promoted *types.Error.Error method with CoreError's
// own.
type CoreError struct {
	Detail types.Error
}

func (e *CoreError) Error() string {
	if e == nil {
		return ""
	}
	return string(e.Detail.Code) + ": " + e.Detail.Message
}

// Code, Message, Retriable, Details, Suggestion mirror the wrapped
// types.Error fields for convenient access without unwrapping.
func (e *CoreError) Code() types.ErrorCode     { return e.Detail.Code }
func (e *CoreError) Retriable() bool           { return e.Detail.Retriable }
func (e *CoreError) Details() map[string]any   { return e.Detail.Details }
func (e *CoreError) Suggestion() string        { return e.Detail.Suggestion }

// AsWire returns the wire-shaped types.Error to embed in a StreamEvent,
// InstallProgress, or SelectionReport.
func (e *CoreError) AsWire() *types.Error { return &e.Detail }

// StatusCode implements httpapi.HTTPError so the HTTP layer can map any
// CoreError to a response status without a bespoke per-handler switch.
func (e *CoreError) StatusCode() int {
	switch e.Detail.Code {
	case types.CodeModelNotFound:
		return http.StatusNotFound
	case types.CodeUnsupportedPlatform, types.CodeInvalidModelFormat, types.CodeConfigError:
		return http.StatusBadRequest
	case types.CodeInsufficientMemory, types.CodeRuntimeNotAvailable:
		return http.StatusServiceUnavailable
	case types.CodeTaskTimeout:
		return http.StatusGatewayTimeout
	case types.CodeTaskCancelled:
		return http.StatusConflict
	case types.CodeModelVerifyFailed, types.CodeDownloadFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// New builds a CoreError for code with the taxonomy's default
// retriability, attaching details and an optional suggestion.
func New(code types.ErrorCode, message string, details map[string]any) *CoreError {
	return &CoreError{types.Error{
		Code:      code,
		Message:   message,
		Retriable: types.DefaultRetriable(code),
		Details:   details,
	}}
}

// WithSuggestion returns a copy of e with Suggestion set.
func (e *CoreError) WithSuggestion(s string) *CoreError {
	cp := *e
	cp.Detail.Suggestion = s
	return &cp
}

func ModelNotFound(id string) *CoreError {
	return New(types.CodeModelNotFound, "model not found: "+id, map[string]any{"modelId": id})
}

func VerifyFailed(artifact, expected, actual string) *CoreError {
	return New(types.CodeModelVerifyFailed, "artifact hash mismatch: "+artifact, map[string]any{
		"artifact":       artifact,
		"expectedSha256": expected,
		"actualSha256":   actual,
	})
}

func RuntimeNotAvailable(reason string, candidates int) *CoreError {
	return New(types.CodeRuntimeNotAvailable, "no runtime fits after downgrade: "+reason, map[string]any{
		"reason":          reason,
		"candidatesTried": candidates,
	})
}

func UnsupportedPlatform(modelID, platform string) *CoreError {
	return New(types.CodeUnsupportedPlatform, "model excludes platform: "+platform, map[string]any{
		"modelId":  modelID,
		"platform": platform,
	})
}

func InsufficientMemory(requiredMB, availableMB int) *CoreError {
	return New(types.CodeInsufficientMemory, "insufficient memory for candidate", map[string]any{
		"requiredMb":  requiredMB,
		"availableMb": availableMB,
	})
}

func TaskTimeout(taskID string) *CoreError {
	return New(types.CodeTaskTimeout, "task timed out: "+taskID, map[string]any{"taskId": taskID})
}

func TaskCancelled(taskID string) *CoreError {
	return New(types.CodeTaskCancelled, "task cancelled: "+taskID, map[string]any{"taskId": taskID})
}

func DownloadFailed(artifact string, cause error) *CoreError {
	details := map[string]any{"artifact": artifact}
	if cause != nil {
		details["cause"] = cause.Error()
	}
	return New(types.CodeDownloadFailed, "download failed: "+artifact, details)
}

// DiskFull is DOWNLOAD_FAILED carrying the disk-full detail shape named in
// SPEC_FULL.md §12 ("Disk-full detail code").
func DiskFull(requiredBytes, availableBytes int64) *CoreError {
	return New(types.CodeDownloadFailed, "insufficient disk space", map[string]any{
		"reason":         "disk_full",
		"requiredBytes":  requiredBytes,
		"availableBytes": availableBytes,
	})
}

func InvalidModelFormat(reason string) *CoreError {
	return New(types.CodeInvalidModelFormat, "invalid manifest: "+reason, map[string]any{"reason": reason})
}

func ConfigError(reason string) *CoreError {
	return New(types.CodeConfigError, "invalid configuration: "+reason, map[string]any{"reason": reason})
}

// Is reports whether err is a *CoreError carrying the given code.
func Is(err error, code types.ErrorCode) bool {
	ce, ok := err.(*CoreError)
	return ok && ce.Detail.Code == code
}

func IsModelNotFound(err error) bool       { return Is(err, types.CodeModelNotFound) }
func IsVerifyFailed(err error) bool        { return Is(err, types.CodeModelVerifyFailed) }
func IsRuntimeNotAvailable(err error) bool { return Is(err, types.CodeRuntimeNotAvailable) }
func IsUnsupportedPlatform(err error) bool { return Is(err, types.CodeUnsupportedPlatform) }
func IsInsufficientMemory(err error) bool  { return Is(err, types.CodeInsufficientMemory) }
func IsTaskTimeout(err error) bool         { return Is(err, types.CodeTaskTimeout) }
func IsTaskCancelled(err error) bool       { return Is(err, types.CodeTaskCancelled) }
func IsDownloadFailed(err error) bool      { return Is(err, types.CodeDownloadFailed) }
func IsInvalidModelFormat(err error) bool  { return Is(err, types.CodeInvalidModelFormat) }
func IsConfigError(err error) bool         { return Is(err, types.CodeConfigError) }

// IsTooBusy mirrors the teacher's 429-mapping predicate: it reports whether
// err is a TASK_TIMEOUT CoreError whose details carry reason "queue_full".
// The scheduler queues tasks without rejecting them, and no code in this
// module builds an error with that reason.
func IsTooBusy(err error) bool {
	ce, ok := err.(*CoreError)
	if !ok {
		return false
	}
	return ce.Detail.Code == types.CodeTaskTimeout && ce.Detail.Details["reason"] == "queue_full"
}
