// File: internal/gate/gate_test.go
package gate_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/refine-cli/internal/config"
	"github.com/xkilldash9x/refine-cli/internal/gate"
)

func newGate() *gate.Gate {
	cfg := config.GateConfig{LargeFunctionThreshold: 15, MinConstructLength: 30}
	return gate.New(cfg, zap.NewNop())
}

func TestCheckAcceptsValidPython(t *testing.T) {
	report := newGate().Check(context.Background(), "def add(a, b):\n    return a + b\n")

	assert.True(t, report.Language.IsPython)
	assert.Equal(t, "OK", report.Syntax)
	assert.Empty(t, report.Aborted)
	assert.Empty(t, report.Security)
	assert.Empty(t, report.RuntimeRisks)
}

func TestCheckRejectsSyntaxError(t *testing.T) {
	report := newGate().Check(context.Background(), "def broken(:\n    return 1\n")

	assert.False(t, report.Language.IsPython)
	assert.Equal(t, "Code rejected: not valid Python.", report.Aborted)
	assert.Contains(t, report.Language.Reason, "Failed to parse as Python")
}

func TestCheckRejectsForeignLanguage(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"javascript arrow", "f = lambda: 1\ncb = '=>'\n"},
		{"go function", "# func main() { }\nx = 1\n"},
		{"console log", "print('hi')  # console.log('hi')\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := newGate().Check(context.Background(), tt.code)
			assert.False(t, report.Language.IsPython)
			assert.Contains(t, report.Language.Reason, "Non-Python syntax pattern detected")
		})
	}
}

func TestCheckRejectsDegenerateInput(t *testing.T) {
	// Over the construct-length threshold but only bare expressions.
	code := "1 + 2 + 3 + 4 + 5 + 6 + 7 + 8 + 9 + 10 + 11\n"
	require.Greater(t, len(strings.TrimSpace(code)), 30)

	report := newGate().Check(context.Background(), code)
	assert.False(t, report.Language.IsPython)
	assert.Equal(t, "No recognizable Python constructs found.", report.Language.Reason)
}

func TestCheckShortSnippetWithoutConstructsPasses(t *testing.T) {
	report := newGate().Check(context.Background(), "1 + 2\n")
	assert.True(t, report.Language.IsPython)
}

func TestSecurityScan(t *testing.T) {
	code := `import subprocess
from os import path

def run_it(cmd):
    eval(cmd)
    subprocess.run(cmd)
`
	report := newGate().Check(context.Background(), code)
	require.True(t, report.Language.IsPython)

	assert.Contains(t, report.Security, "Forbidden import: 'subprocess'")
	assert.Contains(t, report.Security, "Forbidden import via 'from': 'os'")
	assert.Contains(t, report.Security, "Forbidden function call: 'eval'")
	assert.Contains(t, report.Security, "Unsafe system call: 'subprocess.run()'")
	// Advisory only: the pipeline must not abort on findings.
	assert.Empty(t, report.Aborted)
}

func TestRuntimeRiskScan(t *testing.T) {
	code := `def spin():
    while True:
        x = 1 / 0

def loop(n):
    return loop(n)

def after(n):
    return n
    print("never")
`
	report := newGate().Check(context.Background(), code)
	require.True(t, report.Language.IsPython)

	joined := strings.Join(report.RuntimeRisks, "\n")
	assert.Contains(t, joined, "Infinite loop risk")
	assert.Contains(t, joined, "Division by zero")
	assert.Contains(t, joined, "Possible infinite recursion in 'loop'")
	assert.Contains(t, joined, "Unreachable code after 'return' in 'after'")
}

func TestWhileTrueWithBreakIsNotFlagged(t *testing.T) {
	code := `def poll():
    while True:
        if ready():
            break
`
	report := newGate().Check(context.Background(), code)
	for _, w := range report.RuntimeRisks {
		assert.NotContains(t, w, "Infinite loop risk")
	}
}

func TestReadinessScan(t *testing.T) {
	code := `def matmul(a, b):
    for i in a:
        for j in b:
            pass
`
	report := newGate().Check(context.Background(), code)
	require.True(t, report.Optimization.Optimizable)
	require.NotEmpty(t, report.Optimization.Findings)
	assert.Equal(t, "nested_loop", report.Optimization.Findings[0].Type)
	assert.Equal(t, 2, report.Optimization.Findings[0].Line)
}

func TestLargeFunctionFinding(t *testing.T) {
	var b strings.Builder
	b.WriteString("def big():\n")
	for i := 0; i < 16; i++ {
		b.WriteString("    x = 1\n")
	}
	report := newGate().Check(context.Background(), b.String())

	var found bool
	for _, f := range report.Optimization.Findings {
		if f.Type == "large_function" {
			found = true
			assert.Equal(t, "big", f.Name)
		}
	}
	assert.True(t, found)
}
