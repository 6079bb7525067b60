package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-checklist/internal/models"
)

func TestTable_AlignsColoredCells(t *testing.T) {
	var buf bytes.Buffer
	out := &Output{writer: &buf, colorEnabled: true}

	table := NewTable(out, "Check", "Status")
	table.AddRow("Volume confirmation", out.Mark(true))
	table.AddRow("Gap", out.Mark(false))
	table.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, buf.String(), "\x1b[")

	header := stripANSI(lines[0])
	first := stripANSI(lines[2])
	second := stripANSI(lines[3])
	assert.Equal(t, strings.Index(header, "Status"), strings.Index(first, "✓"))
	assert.Equal(t, len([]rune(first[:strings.Index(first, "✓")])), len([]rune(second[:strings.Index(second, "✗")])))
}

func TestOutput_NoColor(t *testing.T) {
	var buf bytes.Buffer
	out := &Output{writer: &buf}

	out.Success("saved %d", 3)
	assert.Equal(t, "saved 3\n", buf.String())
	assert.Equal(t, "FULL SIZE (100%)", out.Recommendation(models.Recommendation{
		Recommendation: 100,
		Status:         models.StatusFullSize,
		Color:          models.ToneSuccess,
	}))
}

func TestStripANSI(t *testing.T) {
	assert.Equal(t, "HALF SIZE", stripANSI("\x1b[33mHALF SIZE\x1b[0m"))
	assert.Equal(t, "plain", stripANSI("plain"))
	assert.Equal(t, 1, displayWidth("\x1b[1;32m✓\x1b[0m"))
}
