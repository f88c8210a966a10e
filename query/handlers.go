package query

import (
	"context"

	"github.com/goliatone/go-db2xlsx/convert"
	"github.com/goliatone/go-errors"
)

// ConversionStatusHandler returns a single job record.
type ConversionStatusHandler struct {
	Service convert.Service
}

func NewConversionStatusHandler(svc convert.Service) *ConversionStatusHandler {
	return &ConversionStatusHandler{Service: svc}
}

func (h *ConversionStatusHandler) Query(ctx context.Context, msg ConversionStatus) (convert.JobRecord, error) {
	if h == nil || h.Service == nil {
		return convert.JobRecord{}, errors.New("convert service is required", errors.CategoryInternal).
			WithTextCode("SERVICE_REQUIRED")
	}
	return h.Service.Status(ctx, msg.JobID)
}

// ConversionHistoryHandler returns conversion history.
type ConversionHistoryHandler struct {
	Service convert.Service
}

func NewConversionHistoryHandler(svc convert.Service) *ConversionHistoryHandler {
	return &ConversionHistoryHandler{Service: svc}
}

func (h *ConversionHistoryHandler) Query(ctx context.Context, msg ConversionHistory) ([]convert.JobRecord, error) {
	if h == nil || h.Service == nil {
		return nil, errors.New("convert service is required", errors.CategoryInternal).
			WithTextCode("SERVICE_REQUIRED")
	}
	return h.Service.History(ctx, msg.Filter)
}
