package mermaid

import (
	"testing"

	"github.com/LegacyCodeHQ/pybundle/cmd/graph/formatters"
	"github.com/LegacyCodeHQ/pybundle/internal/testhelpers"
	"github.com/LegacyCodeHQ/pybundle/internal/testhelpers/plantest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatter_Format(t *testing.T) {
	plan := plantest.Orders(t)

	output, err := (&Formatter{}).Format(plan, formatters.RenderOptions{Label: plan.Function})
	require.NoError(t, err)

	g := testhelpers.MermaidGoldie(t)
	g.Assert(t, t.Name(), []byte(output))
}

func TestFormatter_Format_NoLabel(t *testing.T) {
	plan := plantest.Build(t, "ping", map[string]string{
		"lambdas/ping/handler.py": "import json\n",
	})

	output, err := (&Formatter{}).Format(plan, formatters.RenderOptions{})
	require.NoError(t, err)

	assert.Equal(t, "flowchart LR\n    n0[\"handler.py\"]\n    classDef entry fill:#ffffe0,stroke-width:2px\n    class n0 entry\n", output)
}
