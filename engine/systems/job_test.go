package systems

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobSystem_RejectsBadSizes(t *testing.T) {
	_, err := NewJobSystem(0, 1)
	assert.ErrorIs(t, err, ErrNoWorkers)
	_, err = NewJobSystem(1, -1)
	assert.ErrorIs(t, err, ErrNegativeChannelSize)
}

func TestJobSystem_RunsCallbacks(t *testing.T) {
	js, err := NewJobSystem(4, 4)
	require.NoError(t, err)

	var completed, failed, finished atomic.Int32
	var wg sync.WaitGroup
	boom := errors.New("boom")
	for i := 0; i < 20; i++ {
		wg.Add(1)
		fail := i%5 == 0
		js.Submit(JobTask{
			OnStart: func() error {
				if fail {
					return boom
				}
				return nil
			},
			OnFailure: func(err error) {
				assert.ErrorIs(t, err, boom)
				failed.Add(1)
			},
			OnComplete:           func() { completed.Add(1) },
			OnCompletionCallback: func() { finished.Add(1); wg.Done() },
		})
	}
	wg.Wait()

	assert.Equal(t, int32(16), completed.Load())
	assert.Equal(t, int32(4), failed.Load())
	assert.Equal(t, int32(20), finished.Load())
	require.NoError(t, js.Shutdown())
	require.NoError(t, js.Shutdown())
}
