package core

import "errors"

var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrNotFound covers absent records, records owned by someone else and
	// records whose blob is gone.
	ErrNotFound          = errors.New("not found")
	ErrStorageFailure    = errors.New("storage failure")
	ErrMetadataFailure   = errors.New("metadata failure")
	ErrExtractionFailure = errors.New("extraction failure")
	ErrSummaryFailure    = errors.New("summary failure")

	ErrDuplicateUser = errors.New("user already exists")
)

// Category returns a stable label for err, used for metrics and logs.
func Category(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ErrInvalidIdentifier):
		return "invalid_identifier"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrStorageFailure):
		return "storage_failure"
	case errors.Is(err, ErrMetadataFailure):
		return "metadata_failure"
	case errors.Is(err, ErrExtractionFailure):
		return "extraction_failure"
	case errors.Is(err, ErrSummaryFailure):
		return "summary_failure"
	default:
		return "internal"
	}
}
