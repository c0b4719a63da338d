// internal/workers/ghostwriter/export-content/handler.go
package exportcontent

import (
	"context"
	"encoding/base64"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"ghostwriter-workers/internal/common/errors"
	"ghostwriter-workers/internal/common/export"
	"ghostwriter-workers/internal/common/logger"
	"ghostwriter-workers/internal/common/metrics"
	"ghostwriter-workers/internal/common/session"
	"ghostwriter-workers/internal/common/validation"
	"ghostwriter-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = registry.TaskExportContent

type Dependencies struct {
	Renderer      *export.Renderer
	Store         session.Store
	DefaultFormat string
	Validator     *validation.Validator
	Logger        logger.Logger
}

type Handler struct {
	config        *Config
	renderer      *export.Renderer
	store         session.Store
	defaultFormat string
	validator     *validation.Validator
	errors        *errors.ErrorHandler
	logger        logger.Logger
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
	if deps.Renderer == nil {
		deps.Renderer = export.NewRenderer("")
	}
	if deps.DefaultFormat == "" {
		deps.DefaultFormat = string(export.FormatText)
	}
	if _, err := export.ParseFormat(deps.DefaultFormat); err != nil {
		return nil, fmt.Errorf("invalid %s default format: %w", TaskType, err)
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}

	log := deps.Logger.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:        cfg,
		renderer:      deps.Renderer,
		store:         deps.Store,
		defaultFormat: deps.DefaultFormat,
		validator:     deps.Validator,
		errors:        errors.NewErrorHandler(log),
		logger:        log,
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
	requested := strings.TrimSpace(input.Format)
	if requested == "" {
		requested = h.defaultFormat
	}
	format, err := export.ParseFormat(requested)
	if err != nil {
		return nil, errors.NewUnsupportedExportFormatError(requested)
	}

	content, _, err := session.ResolveContent(ctx, h.store, input.SessionID, input.Content)
	if err != nil {
		return nil, contentError(input.SessionID, err)
	}

	doc, err := h.renderer.Render(content, format)
	if err != nil {
		if stderrors.Is(err, export.ErrUnsupportedFormat) {
			return nil, errors.NewUnsupportedExportFormatError(requested)
		}
		return nil, errors.NewExportFailedError(err)
	}

	h.logger.Info("content exported", map[string]interface{}{
		"sessionId": input.SessionID,
		"format":    string(format),
		"size":      len(doc.Data),
	})

	return &Output{
		FileName:    doc.FileName,
		ContentType: doc.ContentType,
		Content:     base64.StdEncoding.EncodeToString(doc.Data),
		Size:        len(doc.Data),
	}, nil
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
