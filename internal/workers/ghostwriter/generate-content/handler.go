// internal/workers/ghostwriter/generate-content/handler.go
package generatecontent

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ghostwriter-workers/internal/common/clock"
	"ghostwriter-workers/internal/common/errors"
	"ghostwriter-workers/internal/common/genai"
	"ghostwriter-workers/internal/common/logger"
	"ghostwriter-workers/internal/common/metrics"
	"ghostwriter-workers/internal/common/ratelimit"
	"ghostwriter-workers/internal/common/session"
	"ghostwriter-workers/internal/common/validation"
	"ghostwriter-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const TaskType = registry.TaskGenerateContent

const releaseTimeout = 2 * time.Second

// RateLimiter reserves a generation slot for a session under a token and
// gives it back when the generation does not go through.
type RateLimiter interface {
	Reserve(ctx context.Context, key, token string) (ratelimit.Decision, error)
	Release(ctx context.Context, key, token string) error
}

type Dependencies struct {
	Generator genai.Generator
	Store     session.Store
	Limiter   RateLimiter // optional
	Validator *validation.Validator
	Clock     clock.Clock
	Logger    logger.Logger
}

type Handler struct {
	config    *Config
	generator genai.Generator
	store     session.Store
	limiter   RateLimiter
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
	if deps.Generator == nil || deps.Store == nil {
		return nil, fmt.Errorf("%s requires a generator and a session store", TaskType)
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}

	log := deps.Logger.With(map[string]interface{}{"taskType": TaskType})
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real()
	}
	return &Handler{
		config:    cfg,
		generator: deps.Generator,
		store:     deps.Store,
		limiter:   deps.Limiter,
		validator: deps.Validator,
		clock:     clk,
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
	return h.execute(ctx, input, "job-"+strconv.FormatInt(job.Key, 10))
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

// execute reserves the rate limit slot under token. Job retries keep the job
// key, so they reuse the slot of the first attempt.
func (h *Handler) execute(ctx context.Context, input *Input, token string) (*Output, error) {
	prompt := strings.TrimSpace(input.Prompt)
	if prompt == "" {
		return nil, errors.NewInvalidPromptError("prompt is empty")
	}

	sess, err := session.LoadOrCreate(ctx, h.store, input.SessionID, h.clock)
	if err != nil {
		return nil, errors.NewSessionStoreFailedError(err)
	}

	if h.limiter != nil {
		decision, err := h.limiter.Reserve(ctx, sess.ID, token)
		if err != nil {
			return nil, errors.NewSessionStoreFailedError(err)
		}
		if !decision.Allowed {
			metrics.RateLimitRejections.Inc()
			return nil, errors.NewRateLimitedError(sess.ID, decision.RetryAfter)
		}
	}

	text, err := h.generator.Generate(ctx, prompt)
	if err != nil {
		h.releaseSlot(ctx, sess.ID, token)
		if stderrors.Is(err, genai.ErrGenerationTimeout) || stderrors.Is(err, context.DeadlineExceeded) {
			return nil, errors.NewGenerationTimeoutError(err)
		}
		return nil, errors.NewGenerationFailedError(err)
	}

	sess.RecordGeneration(text, h.clock.Now().UTC())
	if err := h.store.Save(ctx, sess); err != nil {
		h.releaseSlot(ctx, sess.ID, token)
		return nil, errors.NewSessionStoreFailedError(err)
	}

	h.logger.Info("content generated", map[string]interface{}{
		"sessionId":       sess.ID,
		"promptLength":    len(prompt),
		"textLength":      len(text),
		"generationCount": sess.GenerationCount,
	})

	return &Output{
		SessionID:       sess.ID,
		GeneratedText:   text,
		GenerationCount: sess.GenerationCount,
	}, nil
}

// releaseSlot hands the reserved slot back. It runs after the job context may
// have expired, so it gets its own deadline.
func (h *Handler) releaseSlot(ctx context.Context, sessionID, token string) {
	if h.limiter == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := h.limiter.Release(ctx, sessionID, token); err != nil {
		h.logger.Warn("failed to release rate limit slot", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err.Error(),
		})
	}
}

// Execute runs the worker logic without a job, for tests and tools.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input, uuid.NewString())
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
