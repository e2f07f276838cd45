package interp

import (
	"context"
	"errors"
	"net/http"

	"sandboxd/internal/config"
	sberrors "sandboxd/internal/errors"
	"sandboxd/internal/executor"
	"sandboxd/internal/sse"

	"github.com/google/uuid"
)

// poolExecutor is the slice of *pool.Manager's API the interpreter service
// needs (accept an interface, not the concrete pool manager, so tests can
// substitute a fake without spawning real subprocess children).
type poolExecutor interface {
	Execute(ctx context.Context, language config.Language, sessionID string, req executor.Request, timeoutMs int) (*executor.Result, error)
}

// Service owns ExecutionContext bookkeeping and drives the pool manager to
// fulfil execute(contextId, code, language?, timeoutMs?) (spec §4.3).
type Service struct {
	contexts *ContextStore
	pools    poolExecutor
}

// NewService builds a Service over an existing pool manager.
func NewService(pools poolExecutor) *Service {
	return &Service{contexts: NewContextStore(), pools: pools}
}

// Contexts exposes the underlying store for the HTTP layer's
// create/list/delete endpoints.
func (s *Service) Contexts() *ContextStore { return s.contexts }

// ErrContextNotFound is returned by Execute before any streaming begins
// when contextId is unknown (spec §4.3 "fails with a 404-mapped error
// before any streaming begins").
var ErrContextNotFound = errors.New("interp: execution context not found")

// Execute streams the result of running code in contextId's context over
// w as server-sent events, in the exact order spec §4.3 requires: stdout,
// then stderr, then one result event per rich output, then terminally
// execution_complete or error. timeoutMs<=0 means unlimited. language, if
// non-empty, overrides the context's own language for this execution only
// (spec §4.3 "execute(contextId, code, language?, timeoutMs?)").
func (s *Service) Execute(ctx context.Context, w http.ResponseWriter, contextID, code string, language config.Language, timeoutMs int) error {
	execCtx, ok := s.contexts.Get(contextID)
	if !ok {
		return sberrors.New(sberrors.KindNotFound, "CONTEXT_NOT_FOUND", http.StatusNotFound, "execute", "execution context not found").WithContext(contextID)
	}

	writer, err := sse.NewWriter(w)
	if err != nil {
		return sberrors.New(sberrors.KindInternal, "STREAM_UNSUPPORTED", http.StatusInternalServerError, "execute", "response does not support streaming")
	}

	s.contexts.touch(contextID)

	lang := execCtx.Language
	if language != "" {
		lang = language
	}

	executionID := uuid.NewString()
	req := executor.Request{Code: code, ExecutionID: executionID}

	res, err := s.pools.Execute(ctx, lang, contextID, req, timeoutMs)
	if err != nil {
		classified := sberrors.MapProcessError("execute", err)
		return writer.Send(map[string]interface{}{
			"type":  "error",
			"error": classified.AsSSEEvent(),
		})
	}

	if res.Stdout != "" {
		if err := writer.Send(map[string]interface{}{"type": "stdout", "data": res.Stdout}); err != nil {
			return err
		}
	}
	if res.Stderr != "" {
		if err := writer.Send(map[string]interface{}{"type": "stderr", "data": res.Stderr}); err != nil {
			return err
		}
	}
	for _, out := range res.Outputs {
		if err := writer.Send(map[string]interface{}{
			"type":     "result",
			"dataType": out.Type,
			"data":     out.Data,
		}); err != nil {
			return err
		}
	}

	if !res.Success && res.Error != nil {
		return writer.Send(map[string]interface{}{
			"type": "error",
			"error": map[string]interface{}{
				"ename":     res.Error.Name,
				"evalue":    res.Error.Value,
				"traceback": res.Error.Traceback,
			},
		})
	}

	return writer.Send(map[string]interface{}{"type": "execution_complete"})
}
