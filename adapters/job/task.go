package convertjob

import (
	"context"
	"encoding/json"

	"github.com/goliatone/go-command/dispatcher"
	convertcmd "github.com/goliatone/go-db2xlsx/command"
	"github.com/goliatone/go-db2xlsx/convert"
	job "github.com/goliatone/go-job"
)

const (
	DefaultConvertTaskID   = "convert:run"
	DefaultConvertTaskPath = "convert:run"
)

// Payload captures the job execution input.
type Payload struct {
	JobID           string `json:"job_id"`
	SourcePath      string `json:"source_path"`
	DestinationPath string `json:"destination_path"`
}

// ConvertDispatch dispatches a synchronous conversion command.
type ConvertDispatch func(ctx context.Context, msg convertcmd.RunConversion) error

// TaskConfig configures the conversion task.
type TaskConfig struct {
	ID             string
	Path           string
	Config         job.Config
	HandlerOptions job.HandlerOptions
	CancelRegistry *CancelRegistry
	Logger         convert.Logger
	Dispatch       ConvertDispatch
}

// ConvertTask executes scheduled conversion jobs.
type ConvertTask struct {
	id             string
	path           string
	config         job.Config
	handlerOptions job.HandlerOptions
	cancelRegistry *CancelRegistry
	logger         convert.Logger
	dispatch       ConvertDispatch
}

// NewConvertTask creates a new conversion task.
func NewConvertTask(cfg TaskConfig) *ConvertTask {
	logger := cfg.Logger
	if logger == nil {
		logger = convert.NopLogger{}
	}
	id := cfg.ID
	if id == "" {
		id = DefaultConvertTaskID
	}
	path := cfg.Path
	if path == "" {
		path = DefaultConvertTaskPath
	}
	dispatch := cfg.Dispatch
	if dispatch == nil {
		dispatch = func(ctx context.Context, msg convertcmd.RunConversion) error {
			return dispatcher.Dispatch(ctx, msg)
		}
	}

	return &ConvertTask{
		id:             id,
		path:           path,
		config:         cfg.Config,
		handlerOptions: cfg.HandlerOptions,
		cancelRegistry: cfg.CancelRegistry,
		logger:         logger,
		dispatch:       dispatch,
	}
}

// GetID returns the task identifier.
func (t *ConvertTask) GetID() string { return t.id }

// GetPath returns the task path.
func (t *ConvertTask) GetPath() string { return t.path }

// GetEngine returns nil because this task is code-driven.
func (t *ConvertTask) GetEngine() job.Engine { return nil }

// GetHandlerConfig returns scheduler options for the task.
func (t *ConvertTask) GetHandlerConfig() job.HandlerOptions { return t.handlerOptions }

// GetConfig returns task config defaults.
func (t *ConvertTask) GetConfig() job.Config { return t.config }

// Execute runs a conversion for the provided payload.
func (t *ConvertTask) Execute(ctx context.Context, msg *job.ExecutionMessage) error {
	if t == nil {
		return convert.NewError(convert.KindInternal, "task is nil", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	payload, err := decodePayload(msg)
	if err != nil {
		return err
	}

	execCtx := ctx
	if t.cancelRegistry != nil && payload.JobID != "" {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithCancel(ctx)
		release := t.cancelRegistry.Register(payload.JobID, cancel)
		defer release()
	}

	t.logger.Infof("conversion job %s: %s -> %s", payload.JobID, payload.SourcePath, payload.DestinationPath)
	return t.dispatch(execCtx, convertcmd.RunConversion{
		JobID:           payload.JobID,
		SourcePath:      payload.SourcePath,
		DestinationPath: payload.DestinationPath,
	})
}

// EncodePayload serializes a payload for execution message parameters.
func EncodePayload(payload Payload) (json.RawMessage, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, convert.NewError(convert.KindValidation, "payload is not serializable", err)
	}
	return json.RawMessage(raw), nil
}

func decodePayload(msg *job.ExecutionMessage) (Payload, error) {
	if msg == nil || msg.Parameters == nil {
		return Payload{}, convert.NewError(convert.KindValidation, "job payload is required", nil)
	}

	raw, ok := msg.Parameters["payload"]
	if !ok {
		return Payload{}, convert.NewError(convert.KindValidation, "job payload missing", nil)
	}

	switch value := raw.(type) {
	case Payload:
		return value, nil
	case *Payload:
		if value == nil {
			return Payload{}, convert.NewError(convert.KindValidation, "job payload is nil", nil)
		}
		return *value, nil
	case json.RawMessage:
		return unmarshalPayload(value)
	case []byte:
		return unmarshalPayload(value)
	case string:
		return unmarshalPayload([]byte(value))
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return Payload{}, convert.NewError(convert.KindValidation, "job payload is invalid", err)
		}
		return unmarshalPayload(data)
	}
}

func unmarshalPayload(data []byte) (Payload, error) {
	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Payload{}, convert.NewError(convert.KindValidation, "job payload is invalid", err)
	}
	if payload.SourcePath == "" {
		return Payload{}, convert.NewError(convert.KindValidation, "source path is required", nil)
	}
	if payload.DestinationPath == "" {
		return Payload{}, convert.NewError(convert.KindValidation, "destination path is required", nil)
	}
	return payload, nil
}
