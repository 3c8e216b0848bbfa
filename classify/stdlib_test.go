package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmbeddedStdlib(t *testing.T) {
	stdlib := EmbeddedStdlib()

	for _, name := range []string{"os", "sys", "json", "collections", "typing", "asyncio", "__future__", "zoneinfo"} {
		assert.True(t, IsStandardLib(name, stdlib), name)
	}
	for _, name := range []string{"boto3", "requests", "utils", ""} {
		assert.False(t, IsStandardLib(name, stdlib), name)
	}
}

func TestIsStandardLib_Submodules(t *testing.T) {
	stdlib := NewStdlibSet("os", "xml")

	assert.True(t, IsStandardLib("os.path", stdlib))
	assert.True(t, IsStandardLib("xml.etree.ElementTree", stdlib))
	assert.False(t, IsStandardLib("osx", stdlib))
}

func TestNewStdlibSet_IgnoresBlanks(t *testing.T) {
	stdlib := NewStdlibSet("json", "", "  ", " re ")

	assert.Equal(t, []string{"json", "re"}, stdlib.Names())
}
