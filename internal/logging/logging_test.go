package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestNew_VerboseEnablesDebug(t *testing.T) {
	var buf bytes.Buffer

	New(&buf, false).Debug("hidden")
	assert.Empty(t, buf.String())

	New(&buf, true).Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestFromContext_ReturnsAttachedLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)

	ctx := WithLogger(context.Background(), l)

	assert.Same(t, l, FromContext(ctx))
}

func TestFromContext_FallsBackToDefault(t *testing.T) {
	assert.Same(t, log.Default(), FromContext(context.Background()))
}

func TestProgress_DoneReportsElapsed(t *testing.T) {
	var buf bytes.Buffer
	p := StartProgress(New(&buf, false))

	p.Done("Bundled", "function", "orders")

	assert.Contains(t, buf.String(), "Bundled")
	assert.Contains(t, buf.String(), "function=orders")
	assert.Contains(t, buf.String(), "elapsed=")
}
