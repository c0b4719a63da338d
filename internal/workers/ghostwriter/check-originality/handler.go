// internal/workers/ghostwriter/check-originality/handler.go
package checkoriginality

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"ghostwriter-workers/internal/common/errors"
	"ghostwriter-workers/internal/common/logger"
	"ghostwriter-workers/internal/common/metrics"
	"ghostwriter-workers/internal/common/session"
	"ghostwriter-workers/internal/common/validation"
	"ghostwriter-workers/internal/common/websearch"
	"ghostwriter-workers/internal/originality"
	"ghostwriter-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = registry.TaskCheckOriginality

type Dependencies struct {
	Searcher  websearch.Searcher
	Scorer    *originality.Scorer
	Store     session.Store
	Validator *validation.Validator
	Logger    logger.Logger
}

type Handler struct {
	config    *Config
	searcher  websearch.Searcher
	scorer    *originality.Scorer
	store     session.Store
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
	if deps.Searcher == nil || deps.Store == nil {
		return nil, fmt.Errorf("%s requires a searcher and a session store", TaskType)
	}
	if deps.Scorer == nil {
		deps.Scorer = originality.NewScorer(originality.DefaultOptions())
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}

	log := deps.Logger.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    cfg,
		searcher:  deps.Searcher,
		scorer:    deps.Scorer,
		store:     deps.Store,
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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	content, _, err := session.ResolveContent(ctx, h.store, input.SessionID, input.Content)
	if err != nil {
		return nil, contentError(input.SessionID, err)
	}

	output := &Output{}

	// A failed search counts as no matches; the failure is reported, not raised.
	snippets, err := h.searcher.Search(ctx, content)
	if err != nil {
		metrics.SearchFallbacks.Inc()
		h.logger.Warn("web search failed, scoring without results", map[string]interface{}{
			"sessionId": input.SessionID,
			"error":     err.Error(),
		})
		output.SearchError = err.Error()
		snippets = nil
	}

	assessment := h.scorer.Assess(snippets)
	metrics.OriginalityScore.Observe(float64(assessment.Score))

	output.Assessment = assessment
	output.Score = assessment.Score
	output.ConsideredSnippets = assessment.ConsideredSnippets
	output.ResultCount = len(snippets)
	output.SimilarContentFound = len(snippets) > 0

	h.logger.Info("originality checked", map[string]interface{}{
		"sessionId":   input.SessionID,
		"score":       assessment.Score,
		"resultCount": output.ResultCount,
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
