// File: cmd/cmd_test.go
package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/refine-cli/api/schemas"
)

// execute runs the root command with scripted stdin and arguments and
// captures the combined output.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(bytes.NewBufferString(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeTempSource(t *testing.T, code string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.py")
	require.NoError(t, os.WriteFile(path, []byte(code), 0o644))
	return path
}

func TestAnalyzeFile(t *testing.T) {
	path := writeTempSource(t, "def f(xs):\n    for x in xs:\n        print(x)\n")

	out, err := execute(t, "", "analyze", path, "--pretty")
	require.NoError(t, err)

	var result schemas.PipelineResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.PassedErrorCheck)
	assert.True(t, result.PassedComplexity)
	assert.False(t, result.OptimizationRan)
	assert.Equal(t, schemas.LevelNone, result.OptimizationLevel)
	assert.Equal(t, result.OriginalCode, result.OptimizedCode)
}

func TestAnalyzeStdin(t *testing.T) {
	out, err := execute(t, "x = 1\n", "analyze")
	require.NoError(t, err)

	var result schemas.PipelineResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "x = 1\n", result.OriginalCode)
	assert.True(t, result.PassedErrorCheck)
}

func TestOptimizeLevelOne(t *testing.T) {
	path := writeTempSource(t, "def f(x):\n    y = not not x\n    return y\n")

	out, err := execute(t, "", "optimize", path, "--level", "1")
	require.NoError(t, err)

	var result schemas.PipelineResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.OptimizationRan)
	assert.Equal(t, schemas.LevelOne, result.OptimizationLevel)
	assert.NotEmpty(t, result.L1Changes)
	assert.NotContains(t, result.OptimizedCode, "not not")
}

func TestOptimizeRejectsBadLevel(t *testing.T) {
	path := writeTempSource(t, "x = 1\n")

	_, err := execute(t, "", "optimize", path, "--level", "3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid optimization level")
}

func TestOptimizeMissingFile(t *testing.T) {
	_, err := execute(t, "", "optimize", filepath.Join(t.TempDir(), "absent.py"), "--level", "1")
	require.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	for level, want := range map[int]schemas.OptimizationLevel{
		0: schemas.LevelNone,
		1: schemas.LevelOne,
		2: schemas.LevelTwo,
	} {
		got, err := parseLevel(level)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := parseLevel(7)
	assert.Error(t, err)
}
