package api

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/solatis/filtertree/internal/core/db"
	"github.com/solatis/filtertree/internal/types"
)

// Error mapping:
// Database errors map to UNAVAILABLE.
// Policy refusals map to FAILED_PRECONDITION, stale revisions to ABORTED.
// Malformed input maps to INVALID_ARGUMENT.
// Context timeouts map to DEADLINE_EXCEEDED.
// Auth errors are mapped in the auth package interceptor.

var invalidArgument = []error{
	types.ErrInvalidPath,
	types.ErrPathNotFound,
	types.ErrPathTooDeep,
	types.ErrNotALeaf,
	types.ErrMoveIntoSelf,
	types.ErrInvalidCondition,
	types.ErrInvalidNode,
	types.ErrUnknownAction,
	types.ErrFieldPathTooDeep,
	types.ErrTooManyWildcards,
	types.ErrInvalidFieldPath,
	types.ErrTooManyValues,
	types.ErrInvalidOperator,
	types.ErrInvalidFieldType,
	types.ErrCoercionFailed,
	types.ErrDocumentTooLarge,
}

// toStatus converts a domain error to a gRPC status error.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, types.ErrSessionNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, types.ErrRevisionConflict):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, types.ErrConditionDisabled), errors.Is(err, types.ErrLastFilter):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, types.ErrTooManyFilters):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, db.ErrDatabase):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	}
	for _, target := range invalidArgument {
		if errors.Is(err, target) {
			return status.Error(codes.InvalidArgument, err.Error())
		}
	}
	return status.Error(codes.Internal, err.Error())
}
