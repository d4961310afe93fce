package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadKDLMissingFileReturnsNil(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadKDL(dir)
	require.NoError(t, err)
	require.Nil(t, cfg)
}

func TestLoadKDLOverridesMergeOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	content := "fuzzy {\n  weight_word 5.0\n  min_score 0.3\n}\ngraph {\n  max_depth 3\n}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".opengloss.kdl"), []byte(content), 0644))

	override, err := LoadKDL(dir)
	require.NoError(t, err)
	require.NotNil(t, override)

	merged := Merge(Default(), override)
	require.Equal(t, 5.0, merged.Fuzzy.Word)
	require.Equal(t, 0.3, merged.Fuzzy.MinScore)
	require.Equal(t, 3, merged.Graph.MaxDepth)
	// Untouched fields keep their defaults.
	require.Equal(t, DefaultWeightDefinitions, merged.Fuzzy.Definitions)
	require.Equal(t, DefaultGraphMaxNodes, merged.Graph.MaxNodes)
}

func TestMergeNilOverrideIsNoOp(t *testing.T) {
	base := Default()
	merged := Merge(base, nil)
	require.Equal(t, base, merged)
}
