package starlark

import (
	"sync"
	"testing"

	"github.com/leapstack-labs/eachof/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
)

func TestThreadPool_GetPut(t *testing.T) {
	pool := NewThreadPool(5, nil)

	thread := pool.Get("first")
	require.NotNil(t, thread)
	assert.Equal(t, "first", thread.Name)

	pool.Put(thread)
	assert.Equal(t, 1, pool.Size())

	reused := pool.Get("second")
	assert.Same(t, thread, reused, "idle thread should be reused")
	assert.Equal(t, 0, pool.Size())
	assert.Equal(t, "second", reused.Name)
}

func TestThreadPool_MaxSize(t *testing.T) {
	pool := NewThreadPool(2, nil)

	threads := make([]*starlark.Thread, 3)
	for i := range threads {
		threads[i] = pool.Get("t")
	}
	for _, thread := range threads {
		pool.Put(thread)
	}

	assert.Equal(t, 2, pool.Size())
}

func TestThreadPool_PutNil(t *testing.T) {
	pool := NewThreadPool(1, nil)
	pool.Put(nil)
	assert.Equal(t, 0, pool.Size())
}

func TestThreadPool_Concurrent(t *testing.T) {
	pool := NewThreadPool(10, nil)
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pool.Put(pool.Get("concurrent"))
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, pool.Size(), 10)
}

func TestThreadPool_PrintLogs(t *testing.T) {
	capture := testutil.NewLogCapture(t)
	pool := NewThreadPool(1, capture.Logger)

	thread := pool.Get("printer")
	_, err := starlark.ExecFile(thread, "p.star", `print("hello from script")`, nil)
	require.NoError(t, err)

	assert.True(t, capture.Contains("hello from script"))
	assert.True(t, capture.Contains("thread=printer"))
}
