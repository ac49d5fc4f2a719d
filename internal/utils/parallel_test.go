package utils

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunParallel(t *testing.T) {
	var a int
	var b []string
	err := RunParallel(context.Background(),
		Fetch(&a, func(context.Context) (int, error) { return 42, nil }),
		Fetch(&b, func(context.Context) ([]string, error) { return []string{"x"}, nil }),
	)
	require.NoError(t, err)
	assert.Equal(t, 42, a)
	assert.Equal(t, []string{"x"}, b)
}

func TestRunParallel_FirstErrorCancels(t *testing.T) {
	boom := errors.New("boom")
	err := RunParallel(context.Background(),
		func(context.Context) error { return boom },
		func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	)
	assert.ErrorIs(t, err, boom)
}
