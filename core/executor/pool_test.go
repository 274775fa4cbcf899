package executor

import (
	"context"
	"testing"

	"github.com/neonlabsorg/neon-proxy-go/core/executor/execfake"
	gwtypes "github.com/neonlabsorg/neon-proxy-go/core/types"
	"github.com/stretchr/testify/require"
)

func TestAsyncInitSpawnsAllWorkers(t *testing.T) {
	fp := &execfake.FactoryPool{}
	pool, err := AsyncInit(context.Background(), 3, func() (Backend, error) { return fp.Factory() })
	require.NoError(t, err)
	require.Equal(t, 3, pool.Size())
	require.Len(t, fp.Created, 3)
}

func TestSubmitRoundRobins(t *testing.T) {
	fp := &execfake.FactoryPool{}
	pool, err := AsyncInit(context.Background(), 2, func() (Backend, error) { return fp.Factory() })
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err := pool.Submit(ExecRequest{Signature: [32]byte{byte(i)}})
		require.NoError(t, err)
	}

	require.Len(t, fp.Created[0].Calls, 2)
	require.Len(t, fp.Created[1].Calls, 2)
}

func TestSubmitReplacesCrashedWorker(t *testing.T) {
	fp := &execfake.FactoryPool{}
	pool, err := AsyncInit(context.Background(), 1, func() (Backend, error) { return fp.Factory() })
	require.NoError(t, err)

	fp.Created[0].Err = execfake.ErrWorkerCrashed

	_, err = pool.Submit(ExecRequest{})
	require.ErrorIs(t, err, gwtypes.ErrExecutorUnavailable)

	require.True(t, fp.Created[0].Closed, "dead worker must be closed on replacement")
	require.Len(t, fp.Created, 2, "a replacement worker must have been spawned")

	// The replacement is healthy, so the next submit succeeds.
	_, err = pool.Submit(ExecRequest{})
	require.NoError(t, err)
	require.Len(t, fp.Created[1].Calls, 1)
}

func TestAsyncInitClosesStartedWorkersOnFailure(t *testing.T) {
	fp := &execfake.FactoryPool{}
	calls := 0
	_, err := AsyncInit(context.Background(), 3, func() (Backend, error) {
		calls++
		if calls == 2 {
			return nil, execfake.ErrWorkerCrashed
		}
		return fp.Factory()
	})
	require.Error(t, err)
	for _, b := range fp.Created {
		require.True(t, b.Closed, "a worker started before the failure must be closed")
	}
}
