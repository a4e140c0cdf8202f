package fiber

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestThreadOptions_NilOptionsSkipped verifies nil options are tolerated,
// matching the conventions of variadic option slices assembled by callers.
func TestThreadOptions_NilOptionsSkipped(t *testing.T) {
	th, err := NewThread(nil, WithName("tolerant"), nil)
	require.NoError(t, err)
	defer th.Close()
	assert.Equal(t, "tolerant", th.Name())
}

func TestFiberOptions_NilOptionsSkipped(t *testing.T) {
	th := newTestThread(t)
	f, err := th.NewFiber(func() {}, nil, nil)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, DefaultStackSize, f.StackSize())
}

// TestWithDefaultStackSize_Validation checks the accepted range for the
// per-thread default: strictly positive, at most MaxStackSize.
func TestWithDefaultStackSize_Validation(t *testing.T) {
	for _, size := range []int{0, -1, MaxStackSize + 1} {
		_, err := NewThread(WithDefaultStackSize(size))
		var sizeErr *StackSizeError
		require.ErrorAs(t, err, &sizeErr, "size %d", size)
		assert.Equal(t, size, sizeErr.Requested)
	}

	th, err := NewThread(WithDefaultStackSize(MaxStackSize))
	require.NoError(t, err)
	require.NoError(t, th.Close())
}

// TestWithStackSize_Validation checks the per-fiber range: zero selects
// the thread default, negatives and oversize are rejected.
func TestWithStackSize_Validation(t *testing.T) {
	th := newTestThread(t)

	for _, size := range []int{-1, MaxStackSize + 1} {
		_, err := th.NewFiber(func() {}, WithStackSize(size))
		var sizeErr *StackSizeError
		require.ErrorAs(t, err, &sizeErr, "size %d", size)
		assert.Equal(t, size, sizeErr.Requested)
	}

	f, err := th.NewFiber(func() {}, WithStackSize(0))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, DefaultStackSize, f.StackSize())
}

func TestWithName_Default(t *testing.T) {
	th := newTestThread(t)
	assert.Equal(t, "", th.Name())
}

// TestWithLogger_NilLogger verifies a nil logger disables lifecycle logging
// without breaking any operation.
func TestWithLogger_NilLogger(t *testing.T) {
	th, err := NewThread(WithLogger(nil), WithName("quiet"))
	require.NoError(t, err)
	defer th.Close()

	f, err := th.NewFiber(func() {
		assert.NoError(t, th.Yield())
	})
	require.NoError(t, err)
	require.NoError(t, f.Resume())
	require.NoError(t, f.Resume())
	require.NoError(t, f.Reset(func() {}))
	require.NoError(t, f.Resume())
	require.NoError(t, f.Close())
}

func TestWithRunInScheduler_Recorded(t *testing.T) {
	th := newTestThread(t)

	f, err := th.NewFiber(func() {}, WithRunInScheduler(true))
	require.NoError(t, err)
	defer f.Close()
	g, err := th.NewFiber(func() {}, WithRunInScheduler(false))
	require.NoError(t, err)
	defer g.Close()

	assert.True(t, f.RunInScheduler())
	assert.False(t, g.RunInScheduler())
}

// TestThreadIDs_Monotonic verifies each thread gets a distinct increasing
// identity for log correlation.
func TestThreadIDs_Monotonic(t *testing.T) {
	a := newTestThread(t)
	b := newTestThread(t)
	assert.Less(t, a.ID(), b.ID())
}
