package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/devbydaniel/pipcam/internal/domain/recording"
	"github.com/devbydaniel/pipcam/internal/output"
)

func TestToggleOnEnter_KeepsListeningAfterRejection(t *testing.T) {
	var buf bytes.Buffer
	replies := []error{
		recording.ErrRecordingInProgress,
		recording.ErrCameraNotReady,
		nil,
		recording.ErrSessionClosed,
		nil,
	}
	calls := 0
	toggle := func(context.Context) error {
		err := replies[calls]
		calls++
		return err
	}

	toggleOnEnter(context.Background(), strings.NewReader("\n\n\n\n\n"), toggle, output.NewFormatter(&buf))

	assert.Equal(t, 4, calls, "stops listening once the session is closed")
	assert.Contains(t, buf.String(), "a recording is already in progress")
	assert.Contains(t, buf.String(), "camera is not ready")
}

func TestToggleOnEnter_StopsAtEOF(t *testing.T) {
	calls := 0
	toggle := func(context.Context) error {
		calls++
		return nil
	}

	toggleOnEnter(context.Background(), strings.NewReader("\n"), toggle, output.NewFormatter(&bytes.Buffer{}))

	assert.Equal(t, 1, calls)
}
