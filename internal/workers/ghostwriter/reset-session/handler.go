// internal/workers/ghostwriter/reset-session/handler.go
package resetsession

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"ghostwriter-workers/internal/common/clock"
	"ghostwriter-workers/internal/common/errors"
	"ghostwriter-workers/internal/common/logger"
	"ghostwriter-workers/internal/common/metrics"
	"ghostwriter-workers/internal/common/session"
	"ghostwriter-workers/internal/common/validation"
	"ghostwriter-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = registry.TaskResetSession

// WindowResetter clears a session's rate limit window.
type WindowResetter interface {
	Reset(ctx context.Context, key string) error
}

type Dependencies struct {
	Store     session.Store
	Limiter   WindowResetter // optional
	Validator *validation.Validator
	Clock     clock.Clock
	Logger    logger.Logger
}

type Handler struct {
	config    *Config
	store     session.Store
	limiter   WindowResetter
	validator *validation.Validator
	clock     clock.Clock
	errors    *errors.ErrorHandler
	logger    logger.Logger
}

func NewHandler(cfg *Config, deps Dependencies) (*Handler, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", TaskType, err)
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("%s requires a session store", TaskType)
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}

	log := deps.Logger.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    cfg,
		store:     deps.Store,
		limiter:   deps.Limiter,
		validator: deps.Validator,
		clock:     deps.Clock,
		errors:    errors.NewErrorHandler(log),
		logger:    log,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	done := metrics.JobStarted(TaskType)

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.process(ctx, job)
	if err != nil {
		stdErr := h.errors.HandleJobError(ctx, client, job, err)
		done(string(stdErr.Code))
		return
	}

	h.completeJob(ctx, client, job, output)
	done("")
}

func (h *Handler) process(ctx context.Context, job entities.Job) (*Output, error) {
	input, err := h.parseInput(job)
	if err != nil {
		return nil, err
	}
	return h.execute(ctx, input)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables := job.Variables
	if variables == "" {
		variables = "{}"
	}
	if h.validator != nil {
		if err := h.validator.Validate(TaskType, variables); err != nil {
			return nil, err
		}
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

// execute clears the session in place and is idempotent: resetting an unknown
// session succeeds without creating it.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	id := strings.TrimSpace(input.SessionID)
	if id == "" {
		return nil, errors.NewInvalidInputError("sessionId is required")
	}

	sess, err := h.store.Get(ctx, id)
	switch {
	case err == nil:
		sess.Reset(h.clock.Now().UTC())
		if err := h.store.Save(ctx, sess); err != nil {
			return nil, errors.NewSessionStoreFailedError(err)
		}
	case stderrors.Is(err, session.ErrSessionNotFound):
		h.logger.Debug("session already absent", map[string]interface{}{"sessionId": id})
	default:
		return nil, errors.NewSessionStoreFailedError(err)
	}

	if h.limiter != nil {
		if err := h.limiter.Reset(ctx, id); err != nil {
			return nil, errors.NewSessionStoreFailedError(err)
		}
	}

	h.logger.Info("session reset", map[string]interface{}{"sessionId": id})
	return &Output{SessionID: id, Reset: true}, nil
}

// Execute runs the worker logic without a job, for tests and tools.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) GetTaskType() string {
	return TaskType
}

func (h *Handler) IsEnabled() bool {
	return h.config.Enabled
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to set job variables", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}
