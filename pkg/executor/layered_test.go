package executor

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/flowmind/pkg/capability"
	"github.com/harun/flowmind/pkg/validator"
)

func TestExecuteLayeredHappyPath(t *testing.T) {
	registry := testRegistry()

	// a feeds both b and c; b and c share the second layer.
	doc := docWith(
		produceStep("a"),
		consumeStep("b", "${a.outputs.value}"),
		consumeStep("c", "${a.outputs.value}"),
	)
	verdict := validated(t, doc, registry)
	require.Equal(t, [][]string{{"a"}, {"b", "c"}}, verdict.Layers)

	exec := New(testCaps(t, nil), zerolog.Nop())
	result, err := exec.ExecuteLayered(context.Background(), doc, verdict, registry)
	require.NoError(t, err)
	assert.True(t, result.Success)
	require.Len(t, result.StepResults, 3)

	// Results are reported in layer order with the layer's own ordering
	// inside, independent of goroutine timing.
	assert.Equal(t, "a", result.StepResults[0].StepID)
	assert.Equal(t, "b", result.StepResults[1].StepID)
	assert.Equal(t, "c", result.StepResults[2].StepID)
}

func TestExecuteLayeredConcurrency(t *testing.T) {
	registry := testRegistry()

	doc := docWith(
		produceStep("a"),
		consumeStep("b", "${a.outputs.value}"),
		consumeStep("c", "${a.outputs.value}"),
	)
	verdict := validated(t, doc, registry)

	// Both steps of the second layer must be in flight at once: each blocks
	// until the other arrives.
	barrier := make(chan struct{}, 2)
	var once sync.Once
	release := make(chan struct{})

	exec := New(testCaps(t, map[string]capability.Handler{
		"test.io.consume": func(ctx context.Context, inputs map[string]any) (any, error) {
			barrier <- struct{}{}
			once.Do(func() {
				go func() {
					<-barrier
					<-barrier
					close(release)
				}()
			})
			select {
			case <-release:
				return nil, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	}), zerolog.Nop())

	result, err := exec.ExecuteLayered(context.Background(), doc, verdict, registry)
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestExecuteLayeredFailureStopsLaterLayers(t *testing.T) {
	registry := testRegistry()

	doc := docWith(
		produceStep("a"),
		consumeStep("b", "${a.outputs.value}"),
	)
	verdict := validated(t, doc, registry)

	invokedB := false
	exec := New(testCaps(t, map[string]capability.Handler{
		"test.io.produce": func(ctx context.Context, inputs map[string]any) (any, error) {
			return nil, errors.New("boom")
		},
		"test.io.consume": func(ctx context.Context, inputs map[string]any) (any, error) {
			invokedB = true
			return nil, nil
		},
	}), zerolog.Nop())

	result, err := exec.ExecuteLayered(context.Background(), doc, verdict, registry)
	require.NoError(t, err)
	assert.False(t, result.Success)
	require.Len(t, result.StepResults, 1)
	assert.Equal(t, StatusFailed, result.StepResults[0].Status)
	assert.False(t, invokedB, "later layers must not start after a failure")
}

func TestExecuteLayeredRefusesInvalidVerdict(t *testing.T) {
	registry := testRegistry()
	exec := New(testCaps(t, nil), zerolog.Nop())

	result, err := exec.ExecuteLayered(context.Background(), docWith(produceStep("p")),
		&validator.Result{Valid: false}, registry)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Empty(t, result.StepResults)
	assert.NotEmpty(t, result.Error)
}
