package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/pvlayout/internal/model"
)

func TestRenderSweepChart(t *testing.T) {
	html, err := RenderSweepChart(buildTestReport().Result)
	require.NoError(t, err)

	page := string(html)
	assert.Contains(t, page, "Energy by pitch")
	assert.Contains(t, page, "Pitch (m)")
	assert.Contains(t, page, `"Best"`)
}

func TestRenderSweepChart_Empty(t *testing.T) {
	_, err := RenderSweepChart(model.OptimizationResult{})
	assert.Error(t, err)
}

func TestWriteSweepChart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweep.html")
	require.NoError(t, WriteSweepChart(path, buildTestReport().Result))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<html")
}
