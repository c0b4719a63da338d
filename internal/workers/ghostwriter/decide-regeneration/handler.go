// internal/workers/ghostwriter/decide-regeneration/handler.go
package decideregeneration

import (
	"context"
	"encoding/json"
	"fmt"

	"ghostwriter-workers/internal/common/errors"
	"ghostwriter-workers/internal/common/logger"
	"ghostwriter-workers/internal/common/metrics"
	"ghostwriter-workers/internal/common/validation"
	"ghostwriter-workers/internal/models"
	"ghostwriter-workers/internal/regeneration"
	"ghostwriter-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = registry.TaskDecideRegeneration

type Dependencies struct {
	Policy    *regeneration.Policy
	Validator *validation.Validator
	Logger    logger.Logger
}

type Handler struct {
	config    *Config
	policy    *regeneration.Policy
	validator *validation.Validator
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
	if deps.Policy == nil {
		deps.Policy = regeneration.NewPolicy(regeneration.DefaultThreshold)
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}

	log := deps.Logger.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    cfg,
		policy:    deps.Policy,
		validator: deps.Validator,
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

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	tone, ok := models.ParseTone(input.Tone)
	if !ok {
		h.logger.Warn("unknown tone, using neutral", map[string]interface{}{"tone": input.Tone})
	}

	threshold := h.policy.Threshold
	if input.OriginalityThreshold != nil {
		threshold = *input.OriginalityThreshold
	}

	decision := regeneration.Decide(input.Assessment, threshold, tone)

	h.logger.Info("regeneration decided", map[string]interface{}{
		"score":       input.Assessment.Score,
		"threshold":   threshold,
		"tone":        string(tone),
		"shouldOffer": decision.ShouldOffer,
	})

	return &Output{
		ShouldOffer: decision.ShouldOffer,
		Instruction: decision.Instruction,
	}, nil
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
