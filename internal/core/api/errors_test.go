package api

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/solatis/filtertree/internal/core/db"
	"github.com/solatis/filtertree/internal/types"
)

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{fmt.Errorf("load: %w", types.ErrSessionNotFound), codes.NotFound},
		{types.ErrRevisionConflict, codes.Aborted},
		{types.ErrConditionDisabled, codes.FailedPrecondition},
		{types.ErrLastFilter, codes.FailedPrecondition},
		{types.ErrTooManyFilters, codes.ResourceExhausted},
		{fmt.Errorf("%w: %w", db.ErrDatabase, errors.New("locked")), codes.Unavailable},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{context.Canceled, codes.Canceled},
		{types.ErrPathNotFound, codes.InvalidArgument},
		{types.ErrInvalidOperator, codes.InvalidArgument},
		{status.Error(codes.PermissionDenied, "no"), codes.PermissionDenied},
		{errors.New("boom"), codes.Internal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, status.Code(toStatus(tt.err)), "%v", tt.err)
	}
	assert.NoError(t, toStatus(nil))
}
