package core

import (
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobSystemValidates(t *testing.T) {
	_, err := NewJobSystem(0, 1)
	assert.ErrorIs(t, err, ErrNoWorkers)
	_, err = NewJobSystem(1, -1)
	assert.ErrorIs(t, err, ErrNegativeChannelSize)
}

func TestJobSystemSingleWorkerKeepsOrder(t *testing.T) {
	js, err := NewJobSystem(1, 4)
	require.NoError(t, err)

	var mu sync.Mutex
	var order []int
	for i := 0; i < 10; i++ {
		i := i
		require.NoError(t, js.Submit(JobTask{
			Name: "append",
			Run: func() error {
				mu.Lock()
				defer mu.Unlock()
				order = append(order, i)
				return nil
			},
		}))
	}
	require.NoError(t, js.Shutdown())
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)
}

func TestJobSystemCallbacks(t *testing.T) {
	js, err := NewJobSystem(2, 0)
	require.NoError(t, err)

	boom := errors.New("boom")
	var completed, failed sync.WaitGroup
	completed.Add(1)
	failed.Add(1)

	var got error
	require.NoError(t, js.Submit(JobTask{
		Run:        func() error { return nil },
		OnComplete: completed.Done,
		OnFailure:  func(error) { t.Error("unexpected failure") },
	}))
	require.NoError(t, js.Submit(JobTask{
		Run:        func() error { return boom },
		OnComplete: func() { t.Error("unexpected completion") },
		OnFailure: func(err error) {
			got = err
			failed.Done()
		},
	}))
	completed.Wait()
	failed.Wait()
	assert.ErrorIs(t, got, boom)

	require.NoError(t, js.Shutdown())
	require.NoError(t, js.Shutdown())
	assert.ErrorIs(t, js.Submit(JobTask{Run: func() error { return nil }}), ErrJobSystemClosed)
}
