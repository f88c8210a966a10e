package command

import (
	"context"

	gcmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-db2xlsx/convert"
	"github.com/goliatone/go-errors"
)

// ConvertDatabaseHandler starts background conversions.
type ConvertDatabaseHandler struct {
	Service convert.Service
}

func NewConvertDatabaseHandler(svc convert.Service) *ConvertDatabaseHandler {
	return &ConvertDatabaseHandler{Service: svc}
}

func (h *ConvertDatabaseHandler) Execute(ctx context.Context, msg ConvertDatabase) error {
	if h == nil || h.Service == nil {
		return errors.New("convert service is required", errors.CategoryInternal).
			WithTextCode("SERVICE_REQUIRED")
	}
	record, err := h.Service.StartConversion(ctx, convert.ConvertRequest{
		SourcePath:      msg.SourcePath,
		DestinationPath: msg.DestinationPath,
	})
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = record
	}
	if res := gcmd.ResultFromContext[convert.JobRecord](ctx); res != nil {
		res.Store(record)
	}
	return nil
}

// RunConversionHandler executes conversions synchronously.
type RunConversionHandler struct {
	Pipeline *convert.Pipeline
}

func NewRunConversionHandler(pipeline *convert.Pipeline) *RunConversionHandler {
	return &RunConversionHandler{Pipeline: pipeline}
}

func (h *RunConversionHandler) Execute(ctx context.Context, msg RunConversion) error {
	if h == nil || h.Pipeline == nil {
		return errors.New("convert pipeline is required", errors.CategoryInternal).
			WithTextCode("PIPELINE_REQUIRED")
	}
	result, err := h.Pipeline.Run(ctx, convert.ConvertRequest{
		JobID:           msg.JobID,
		SourcePath:      msg.SourcePath,
		DestinationPath: msg.DestinationPath,
	})
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = result
	}
	if res := gcmd.ResultFromContext[convert.ConvertResult](ctx); res != nil {
		res.Store(result)
	}
	return nil
}

// CancelConversionHandler cancels a running conversion.
type CancelConversionHandler struct {
	Service convert.Service
}

func NewCancelConversionHandler(svc convert.Service) *CancelConversionHandler {
	return &CancelConversionHandler{Service: svc}
}

func (h *CancelConversionHandler) Execute(ctx context.Context, msg CancelConversion) error {
	if h == nil || h.Service == nil {
		return errors.New("convert service is required", errors.CategoryInternal).
			WithTextCode("SERVICE_REQUIRED")
	}
	_, err := h.Service.CancelConversion(ctx, msg.JobID)
	return err
}
