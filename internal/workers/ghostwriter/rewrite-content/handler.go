// internal/workers/ghostwriter/rewrite-content/handler.go
package rewritecontent

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"ghostwriter-workers/internal/common/clock"
	"ghostwriter-workers/internal/common/errors"
	"ghostwriter-workers/internal/common/genai"
	"ghostwriter-workers/internal/common/logger"
	"ghostwriter-workers/internal/common/metrics"
	"ghostwriter-workers/internal/common/session"
	"ghostwriter-workers/internal/common/validation"
	"ghostwriter-workers/internal/models"
	"ghostwriter-workers/internal/regeneration"
	"ghostwriter-workers/internal/rewrite"
	"ghostwriter-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = registry.TaskRewriteContent

// ContentRewriter is satisfied by *rewrite.Service.
type ContentRewriter interface {
	Rewrite(ctx context.Context, instruction, text string) (*rewrite.Result, error)
}

type Dependencies struct {
	Rewriter  ContentRewriter
	Store     session.Store
	Validator *validation.Validator
	Clock     clock.Clock
	Logger    logger.Logger
}

type Handler struct {
	config    *Config
	rewriter  ContentRewriter
	store     session.Store
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
	if deps.Rewriter == nil || deps.Store == nil {
		return nil, fmt.Errorf("%s requires a rewriter and a session store", TaskType)
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
		rewriter:  deps.Rewriter,
		store:     deps.Store,
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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	content, sess, err := session.ResolveContent(ctx, h.store, input.SessionID, input.Content)
	if err != nil {
		return nil, contentError(input.SessionID, err)
	}

	instruction := strings.TrimSpace(input.Instruction)
	if instruction == "" {
		tone, ok := models.ParseTone(input.Tone)
		if !ok {
			h.logger.Warn("unknown tone, using neutral", map[string]interface{}{"tone": input.Tone})
		}
		instruction = regeneration.Instruction(tone)
	}

	result, err := h.rewriter.Rewrite(ctx, instruction, content)
	if err != nil {
		if stderrors.Is(err, genai.ErrGenerationTimeout) || stderrors.Is(err, context.DeadlineExceeded) {
			return nil, errors.NewGenerationTimeoutError(err)
		}
		return nil, errors.NewRewriteFailedError(err)
	}
	metrics.RewriteOutcomes.WithLabelValues(result.Strategy).Inc()

	if !result.Converged {
		h.logger.Warn("rewrite did not change the content", map[string]interface{}{
			"sessionId": input.SessionID,
			"strategy":  result.Strategy,
		})
	}

	output := &Output{
		RewrittenText: result.Text,
		Strategy:      result.Strategy,
		Converged:     result.Converged,
	}

	if sess != nil {
		sess.RecordRegeneration(result.Text, h.clock.Now().UTC())
		if err := h.store.Save(ctx, sess); err != nil {
			return nil, errors.NewSessionStoreFailedError(err)
		}
		output.SessionID = sess.ID
	}

	h.logger.Info("content rewritten", map[string]interface{}{
		"sessionId": output.SessionID,
		"strategy":  result.Strategy,
		"converged": result.Converged,
	})
	return output, nil
}

func contentError(sessionID string, err error) error {
	switch {
	case stderrors.Is(err, session.ErrSessionNotFound):
		return errors.NewSessionNotFoundError(sessionID)
	case stderrors.Is(err, session.ErrNoContent):
		return errors.NewNoContentError("no content given and the session has no generated text")
	default:
		return errors.NewSessionStoreFailedError(err)
	}
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
