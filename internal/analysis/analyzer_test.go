// File: internal/analysis/analyzer_test.go
package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/refine-cli/api/schemas"
)

func analyzeOne(t *testing.T, source string) schemas.FunctionReport {
	t.Helper()
	report, err := New(zap.NewNop()).Analyze(context.Background(), source)
	require.NoError(t, err)
	require.NotEmpty(t, report.Functions)
	return report.Functions[0]
}

func TestTimeComplexityClassification(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{
			name: "constant",
			code: "def f(x):\n    return x + 1\n",
			want: "O(1)",
		},
		{
			name: "single loop",
			code: "def f(xs):\n    for x in xs:\n        print(x)\n",
			want: "O(n)",
		},
		{
			name: "double loop",
			code: "def f(xs):\n    for x in xs:\n        for y in xs:\n            print(x, y)\n",
			want: "O(n^2)",
		},
		{
			name: "triple loop",
			code: "def f(xs):\n    for x in xs:\n        for y in xs:\n            for z in xs:\n                print(x, y, z)\n",
			want: "O(n^3)",
		},
		{
			name: "linear recursion",
			code: "def fact(n):\n    if n <= 1:\n        return 1\n    return n * fact(n - 1)\n",
			want: "O(n)",
		},
		{
			name: "branching recursion",
			code: "def fib(n):\n    if n < 2:\n        return n\n    return fib(n - 1) + fib(n - 2)\n",
			want: "O(2^n)",
		},
		{
			name: "slicing recursion",
			code: "def s(xs):\n    if not xs:\n        return 0\n    return xs[0] + s(xs[1:])\n",
			want: "O(n^2)",
		},
		{
			name: "binary search halving loop",
			code: `def bs(xs, t):
    l = 0
    r = len(xs) - 1
    while l <= r:
        mid = (l + r) // 2
        if xs[mid] == t:
            return mid
        if xs[mid] < t:
            l = mid + 1
        else:
            r = mid - 1
    return -1
`,
			want: "O(log n)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, analyzeOne(t, tt.code).TimeComplexity)
		})
	}
}

func TestMergeSortIsLinearithmic(t *testing.T) {
	code := `def merge_sort(xs):
    if len(xs) <= 1:
        return xs
    mid = len(xs) // 2
    left = merge_sort(xs[:mid])
    right = merge_sort(xs[mid:])
    return merge(left, right)
`
	fn := analyzeOne(t, code)
	// Branching plus divide-and-conquer must win over the exponential rule.
	assert.Equal(t, "O(n log n)", fn.TimeComplexity)
	assert.True(t, fn.Signals.HasBranchingRecursion)
	assert.True(t, fn.Signals.HasSlicing)
	assert.Equal(t, "O(n)", fn.SpaceComplexity)
}

func TestSpaceComplexityClassification(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"no allocations", "def f(x):\n    return x\n", "O(1)"},
		{"list literal", "def f():\n    return [1, 2, 3]\n", "O(n)"},
		{"recursion dominates", "def f(n):\n    if n == 0:\n        return []\n    return f(n - 1)\n", "O(n)"},
		{
			"nested comprehension",
			"def f(n):\n    return [[i * j for j in range(n)] for i in range(n)]\n",
			"O(n^2)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, analyzeOne(t, tt.code).SpaceComplexity)
		})
	}
}

func TestSignalsAreScopedPerFunction(t *testing.T) {
	code := `def a(n):
    return a(n - 1)

def b(n):
    return n
`
	report, err := New(zap.NewNop()).Analyze(context.Background(), code)
	require.NoError(t, err)
	require.Len(t, report.Functions, 2)

	assert.True(t, report.Functions[0].Signals.IsRecursive)
	assert.False(t, report.Functions[1].Signals.IsRecursive)
	assert.Zero(t, report.Functions[1].Signals.RecursiveCallCount)
}

func TestCyclomaticComplexity(t *testing.T) {
	code := `def f(x):
    if x > 0 and x < 10:
        return 1
    elif x == 0:
        return 0
    for i in range(x):
        pass
    return -1
`
	fn := analyzeOne(t, code)
	// 1 + if + bool op + elif + for.
	assert.Equal(t, 5, fn.CyclomaticComplexity)
}

func TestLOCCounting(t *testing.T) {
	source := "# header\n\nx = 1\ny = 2\n"
	loc := countLOC(source)
	assert.Equal(t, 4, loc.Total)
	assert.Equal(t, 1, loc.Blank)
	assert.Equal(t, 1, loc.Comment)
	assert.Equal(t, 2, loc.Code)
}

func TestHalsteadBasics(t *testing.T) {
	code := "def f(a, b):\n    return a + b\n"
	fn := analyzeOne(t, code)

	assert.Greater(t, fn.Halstead.Volume, 0.0)
	assert.GreaterOrEqual(t, fn.Halstead.Difficulty, 0.0)
	assert.InDelta(t, fn.Halstead.Effort/18, fn.Halstead.TimeToProgram, 0.01)
	assert.InDelta(t, fn.Halstead.Volume/3000, fn.Halstead.BugsDelivered, 0.001)
}

func TestMaintainabilityIndexBounds(t *testing.T) {
	assert.Equal(t, 100.0, maintainabilityIndex(0, 0, 0))

	mi := maintainabilityIndex(500, 10, 40)
	assert.GreaterOrEqual(t, mi, 0.0)
	assert.LessOrEqual(t, mi, 100.0)

	assert.Equal(t, "High", miLabel(85))
	assert.Equal(t, "Moderate", miLabel(70))
	assert.Equal(t, "Low", miLabel(30))
}

func TestFileAggregates(t *testing.T) {
	code := `def f(xs):
    for x in xs:
        pass

def g(xs):
    for x in xs:
        for y in xs:
            pass
`
	report, err := New(zap.NewNop()).Analyze(context.Background(), code)
	require.NoError(t, err)

	assert.Equal(t, 1, report.BigODistribution["O(n)"])
	assert.Equal(t, 1, report.BigODistribution["O(n^2)"])
	assert.Equal(t,
		report.Functions[0].CyclomaticComplexity+report.Functions[1].CyclomaticComplexity,
		report.TotalCyclomaticComplexity)
}

func TestAnalyzeRejectsInvalidSource(t *testing.T) {
	_, err := New(zap.NewNop()).Analyze(context.Background(), "def f(:\n    pass\n")
	assert.Error(t, err)
}

func TestNestedFunctionsAreReportedSeparately(t *testing.T) {
	code := `def outer():
    def inner(n):
        return inner(n - 1)
    return inner
`
	report, err := New(zap.NewNop()).Analyze(context.Background(), code)
	require.NoError(t, err)
	require.Len(t, report.Functions, 2)

	assert.Equal(t, "outer", report.Functions[0].Name)
	assert.Equal(t, "inner", report.Functions[1].Name)
	assert.True(t, report.Functions[1].Signals.IsRecursive)
}
