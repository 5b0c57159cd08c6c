package metrics

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

func TestClassifyAPIError(t *testing.T) {
	t.Parallel()

	gr := schema.GroupResource{Group: "apps", Resource: "deployments"}

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "nil_error",
			err:      nil,
			expected: "",
		},
		{
			name:     "conflict",
			err:      apierrors.NewConflict(gr, "site", errors.New("modified")),
			expected: ErrorTypeConflict,
		},
		{
			name:     "not_found",
			err:      apierrors.NewNotFound(gr, "site"),
			expected: ErrorTypeNotFound,
		},
		{
			name:     "forbidden",
			err:      apierrors.NewForbidden(gr, "site", errors.New("denied")),
			expected: ErrorTypeForbidden,
		},
		{
			name:     "unauthorized",
			err:      apierrors.NewUnauthorized("token expired"),
			expected: ErrorTypeForbidden,
		},
		{
			name:     "bad_request",
			err:      apierrors.NewBadRequest("malformed"),
			expected: ErrorTypeInvalid,
		},
		{
			name:     "server_timeout",
			err:      apierrors.NewServerTimeout(gr, "get", 1),
			expected: ErrorTypeTimeout,
		},
		{
			name:     "service_unavailable",
			err:      apierrors.NewServiceUnavailable("etcd down"),
			expected: ErrorTypeUnavailable,
		},
		{
			name:     "too_many_requests",
			err:      apierrors.NewTooManyRequests("slow down", 5),
			expected: ErrorTypeUnavailable,
		},
		{
			name:     "wrapped_conflict",
			err:      errors.Wrap(apierrors.NewConflict(gr, "site", errors.New("modified")), "failed to patch"),
			expected: ErrorTypeConflict,
		},
		{
			name:     "deadline_by_message",
			err:      errors.New("context deadline exceeded"),
			expected: ErrorTypeTimeout,
		},
		{
			name:     "connection_refused_by_message",
			err:      errors.New("dial tcp 10.0.0.1:443: connection refused"),
			expected: ErrorTypeUnavailable,
		},
		{
			name:     "unknown",
			err:      errors.New("something else entirely"),
			expected: ErrorTypeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, ClassifyAPIError(tt.err))
		})
	}
}
