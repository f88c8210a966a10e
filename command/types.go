package command

import (
	"github.com/goliatone/go-db2xlsx/convert"
	"github.com/goliatone/go-errors"
)

// ConvertDatabase requests a background conversion.
type ConvertDatabase struct {
	SourcePath      string
	DestinationPath string
	Result          *convert.JobRecord
}

func (ConvertDatabase) Type() string { return "convert:start" }

func (msg ConvertDatabase) Validate() error {
	if msg.SourcePath == "" {
		return errors.New("source path is required", errors.CategoryValidation).
			WithTextCode("SOURCE_REQUIRED")
	}
	if msg.DestinationPath == "" {
		return errors.New("destination path is required", errors.CategoryValidation).
			WithTextCode("DESTINATION_REQUIRED")
	}
	return nil
}

// RunConversion executes a conversion synchronously, for job runners.
type RunConversion struct {
	JobID           string
	SourcePath      string
	DestinationPath string
	Result          *convert.ConvertResult
}

func (RunConversion) Type() string { return "convert:run" }

func (msg RunConversion) Validate() error {
	if msg.SourcePath == "" {
		return errors.New("source path is required", errors.CategoryValidation).
			WithTextCode("SOURCE_REQUIRED")
	}
	if msg.DestinationPath == "" {
		return errors.New("destination path is required", errors.CategoryValidation).
			WithTextCode("DESTINATION_REQUIRED")
	}
	return nil
}

// CancelConversion cancels a running conversion.
type CancelConversion struct {
	JobID string
}

func (CancelConversion) Type() string { return "convert:cancel" }

func (msg CancelConversion) Validate() error {
	if msg.JobID == "" {
		return errors.New("job ID is required", errors.CategoryValidation).
			WithTextCode("JOB_ID_REQUIRED")
	}
	return nil
}
