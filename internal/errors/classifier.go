package errors

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

type ErrorClass int

const (
	ClassInternal ErrorClass = iota
	ClassMalformed
	ClassUnauthorized
	ClassUnavailable
)

func (c ErrorClass) String() string {
	switch c {
	case ClassMalformed:
		return "malformed"
	case ClassUnauthorized:
		return "unauthorized"
	case ClassUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

type ClassifiedError struct {
	Class         ErrorClass
	InternalError error
	OperationName string
	KeyID         string // logged, never returned
	Metadata      map[string]any
}

type ErrorClassifier struct {
	logger *slog.Logger
}

func NewErrorClassifier(logger *slog.Logger) *ErrorClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorClassifier{logger: logger}
}

var errorPool = sync.Pool{
	New: func() any {
		return &ClassifiedError{
			Metadata: make(map[string]any, 4),
		}
	},
}

// Classify sorts err into a class. The returned value must be handed to
// LogAndSanitize, which recycles it.
func (ec *ErrorClassifier) Classify(err error, operation string) *ClassifiedError {
	classified := errorPool.Get().(*ClassifiedError)
	classified.InternalError = err
	classified.OperationName = operation

	switch {
	case errors.Is(err, ErrMalformedRequest):
		classified.Class = ClassMalformed
	case errors.Is(err, ErrKeyNotFound),
		errors.Is(err, ErrSignatureMismatch),
		errors.Is(err, ErrTimestampOutOfWindow),
		errors.Is(err, ErrUnauthorized):
		classified.Class = ClassUnauthorized
	case errors.Is(err, ErrKeyStoreUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		classified.Class = ClassUnavailable
	default:
		classified.Class = ClassInternal
	}

	return classified
}

// LogAndSanitize logs the full error and returns what a caller may see.
// Every authorization failure collapses to ErrUnauthorized so that the key
// lookup, signature and timestamp checks are indistinguishable from outside.
// Malformed input keeps its own identity because it points at a client bug.
func (ec *ErrorClassifier) LogAndSanitize(ctx context.Context, classified *ClassifiedError) error {
	defer ec.putError(classified)

	level := slog.LevelError
	if classified.Class == ClassUnauthorized || classified.Class == ClassMalformed {
		level = slog.LevelWarn
	}

	internal := ""
	if classified.InternalError != nil {
		internal = classified.InternalError.Error()
	}

	ec.logger.Log(ctx, level, "operation failed",
		"operation", classified.OperationName,
		"error_class", classified.Class.String(),
		"internal_error", internal,
		"key_id", classified.KeyID,
		"metadata", classified.Metadata,
	)

	return sanitize(classified)
}

func sanitize(classified *ClassifiedError) error {
	switch classified.Class {
	case ClassMalformed:
		return ErrMalformedRequest
	case ClassUnauthorized, ClassUnavailable:
		return ErrUnauthorized
	default:
		return ErrInternal
	}
}

func (ec *ErrorClassifier) putError(err *ClassifiedError) {
	err.KeyID = ""
	err.InternalError = nil
	for k := range err.Metadata {
		delete(err.Metadata, k)
	}
	err.OperationName = ""
	errorPool.Put(err)
}
