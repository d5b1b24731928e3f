package domain_test

import (
	"testing"

	"github.com/observ-ing/core-sub000/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestNewLimit(t *testing.T) {
	ptr := func(n int) *int { return &n }

	tests := []struct {
		name  string
		limit *int
		want  int
	}{
		{"nil uses default", nil, domain.DefaultLimit},
		{"zero uses default", ptr(0), domain.DefaultLimit},
		{"negative uses default", ptr(-5), domain.DefaultLimit},
		{"in range kept", ptr(7), 7},
		{"max kept", ptr(domain.MaxLimit), domain.MaxLimit},
		{"above max capped", ptr(domain.MaxLimit + 1), domain.MaxLimit},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, domain.NewLimit(tc.limit))
		})
	}
}
