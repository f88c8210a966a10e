package query

import (
	"github.com/goliatone/go-db2xlsx/convert"
	"github.com/goliatone/go-errors"
)

// ConversionStatus requests a conversion job record.
type ConversionStatus struct {
	JobID string
}

func (ConversionStatus) Type() string { return "convert:status" }

func (msg ConversionStatus) Validate() error {
	if msg.JobID == "" {
		return errors.New("job ID is required", errors.CategoryValidation).
			WithTextCode("JOB_ID_REQUIRED")
	}
	return nil
}

// ConversionHistory requests conversion history.
type ConversionHistory struct {
	Filter convert.JobFilter
}

func (ConversionHistory) Type() string { return "convert:history" }

func (ConversionHistory) Validate() error { return nil }
