package utils

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteWithResultsPositional(t *testing.T) {
	results, errs := ExecuteWithResults(context.Background(), 2,
		func() (int, error) { return 1, nil },
		func() (int, error) { return 0, errors.New("boom") },
		func() (int, error) { return 3, nil },
	)

	require.Len(t, results, 3)
	assert.Equal(t, 1, results[0])
	assert.Error(t, errs[1])
	assert.Equal(t, 3, results[2])
	assert.NoError(t, errs[0])
	assert.NoError(t, errs[2])
}

func TestExecuteWithResultsRecoversPanic(t *testing.T) {
	_, errs := ExecuteWithResults(context.Background(), 1,
		func() (string, error) { panic("bad strategy") },
		func() (string, error) { return "ok", nil },
	)

	var panicErr *PanicError
	require.ErrorAs(t, errs[0], &panicErr)
	assert.NoError(t, errs[1])
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 0}, []float32{1, 0}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1}, []float32{1, 2}))
	assert.Equal(t, 0.0, CosineSimilarity(nil, nil))
}
