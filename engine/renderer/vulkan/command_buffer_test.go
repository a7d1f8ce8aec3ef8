package vulkan

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunOneShotRecordingFailureIsLoggedNotReturned(t *testing.T) {
	var out bytes.Buffer
	logger := log.New(&out)

	finished := 0
	err := runOneShot(logger, "atlas upload",
		func() error { return errors.New("bad layout") },
		func() error { finished++; return nil })

	require.NoError(t, err)
	assert.Equal(t, 1, finished)
	assert.Contains(t, out.String(), "atlas upload: recording failed")
	assert.Contains(t, out.String(), "bad layout")
}

func TestRunOneShotRecoversPanic(t *testing.T) {
	var out bytes.Buffer
	finished := 0
	err := runOneShot(log.New(&out), "copy",
		func() error { panic("nil image") },
		func() error { finished++; return nil })

	require.NoError(t, err)
	assert.Equal(t, 1, finished)
	assert.Contains(t, out.String(), "nil image")
}

func TestRunOneShotReturnsSubmissionError(t *testing.T) {
	lost := errors.New("queue lost")
	err := runOneShot(log.New(&bytes.Buffer{}), "copy",
		func() error { return nil },
		func() error { return lost })

	require.Error(t, err)
	assert.True(t, errors.Is(err, lost))
	assert.Contains(t, err.Error(), "copy: one-shot submission")
}
