package s3

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/minio/minio-go/v7"

	"github.com/jupiterclapton/ephemera/internal/core/domain"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"precondition", minio.ErrorResponse{Code: "PreconditionFailed", StatusCode: http.StatusPreconditionFailed}, domain.ErrConflict},
		{"conditional conflict", minio.ErrorResponse{Code: "ConditionalRequestConflict", StatusCode: http.StatusConflict}, domain.ErrConflict},
		{"server error", minio.ErrorResponse{Code: "InternalError", StatusCode: http.StatusInternalServerError}, domain.ErrBackendUnavailable},
		{"transport", fmt.Errorf("dial tcp: connection refused"), domain.ErrBackendUnavailable},
		{"canceled", context.Canceled, context.Canceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := handleError(tt.in); !errors.Is(got, tt.want) {
				t.Errorf("handleError(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	if handleError(nil) != nil {
		t.Error("handleError(nil) should be nil")
	}
}

func TestIsNotFound(t *testing.T) {
	if !isNotFound(minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}) {
		t.Error("NoSuchKey should be not found")
	}
	if isNotFound(minio.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden}) {
		t.Error("AccessDenied should not be not found")
	}
}
