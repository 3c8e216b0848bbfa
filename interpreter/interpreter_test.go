package interpreter

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeWith_DecodesInterpreterReport(t *testing.T) {
	var gotPython, gotDir string
	var gotArgs []string
	run := func(_ context.Context, python, dir string, args ...string) ([]byte, string, error) {
		gotPython, gotDir, gotArgs = python, dir, args
		return []byte(`{"version": "3.12.1", "prefix": "/usr", "stdlib": ["json", "os"], "builtin": ["sys"], "path": ["/usr/lib/python3.12", "/usr/lib/python3/dist-packages"]}` + "\n"), "", nil
	}

	info, err := ProbeWith(context.Background(), run, "python3", "/project")

	require.NoError(t, err)
	assert.Equal(t, "python3", gotPython)
	assert.Equal(t, "/project", gotDir)
	require.Len(t, gotArgs, 2)
	assert.Equal(t, "-c", gotArgs[0])

	assert.Equal(t, "3.12.1", info.Version)
	assert.True(t, info.HasStdlibListing())
	assert.Equal(t, []string{"json", "os", "sys"}, info.StdlibNames())
	assert.Equal(t, []string{"/usr/lib/python3.12", "/usr/lib/python3/dist-packages"}, info.Path)
}

func TestProbeWith_OldInterpreterHasNoStdlibListing(t *testing.T) {
	run := func(context.Context, string, string, ...string) ([]byte, string, error) {
		return []byte(`{"version": "3.9.18", "prefix": "/usr", "stdlib": [], "builtin": ["sys", "_io"], "path": []}`), "", nil
	}

	info, err := ProbeWith(context.Background(), run, "python3.9", ".")

	require.NoError(t, err)
	assert.False(t, info.HasStdlibListing())
	assert.Equal(t, []string{"sys", "_io"}, info.StdlibNames())
}

func TestProbeWith_ReportsStderr(t *testing.T) {
	run := func(context.Context, string, string, ...string) ([]byte, string, error) {
		return nil, "SyntaxError: invalid syntax", errors.New("exit status 1")
	}

	_, err := ProbeWith(context.Background(), run, "python2", ".")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SyntaxError: invalid syntax")
}

func TestProbeWith_InvalidOutput(t *testing.T) {
	run := func(context.Context, string, string, ...string) ([]byte, string, error) {
		return []byte("Python 3.12.1"), "", nil
	}

	_, err := ProbeWith(context.Background(), run, "python3", ".")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected output")
}

func TestProbeWith_NoInterpreter(t *testing.T) {
	_, err := ProbeWith(context.Background(), nil, "", ".")

	assert.Error(t, err)
}

func TestProbe_MissingExecutable(t *testing.T) {
	_, err := Probe(context.Background(), filepath.Join(t.TempDir(), "no-such-python"), ".")

	assert.Error(t, err)
}
