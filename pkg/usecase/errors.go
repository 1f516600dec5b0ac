package usecase

import "errors"

// Sentinel errors for use case layer
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")
	ErrEmptyCorpus          = errors.New("corpus is empty")

	ErrLogNotFound      = errors.New("analysis log not found")
	ErrInvalidRetention = errors.New("retention days must be at least 1")

	ErrProjectNotFound = errors.New("project not found")
)

// Context keys for error values
const (
	LogIDKey     = "log_id"
	ProjectIDKey = "project_id"
)
