// File: api/schemas/schemas.go
// Shared result types exchanged between the pipeline stages and the CLI
// front end. Everything here is JSON-serializable; the transport layer
// marshals a PipelineResult exactly once and never mutates it afterward.
package schemas

// OptimizationLevel selects which optimizer (if any) the pipeline runs.
type OptimizationLevel string

const (
	LevelNone OptimizationLevel = "none"   // Analysis only.
	LevelOne  OptimizationLevel = "level1" // Deterministic rule-based rewrite.
	LevelTwo  OptimizationLevel = "level2" // Multi-backend generative rewrite.
)

// RiskLabel is a backend's self-reported chance of a behaviour change.
type RiskLabel string

const (
	RiskLow    RiskLabel = "low"
	RiskMedium RiskLabel = "medium"
	RiskHigh   RiskLabel = "high"
)

// LOCReport is a line-of-code breakdown for one source scope.
type LOCReport struct {
	Total   int `json:"total"`
	Blank   int `json:"blank"`
	Comment int `json:"comment"`
	Code    int `json:"code"`
}

// HalsteadReport holds the token-count-derived complexity estimates.
type HalsteadReport struct {
	DistinctOperators int     `json:"distinct_operators"`
	DistinctOperands  int     `json:"distinct_operands"`
	TotalOperators    int     `json:"total_operators"`
	TotalOperands     int     `json:"total_operands"`
	Volume            float64 `json:"volume"`
	Difficulty        float64 `json:"difficulty"`
	Effort            float64 `json:"effort"`
	TimeToProgram     float64 `json:"time_to_program"`
	BugsDelivered     float64 `json:"bugs_delivered"`
}

// Signals are the per-scope features extracted by one traversal. Counters
// are scoped: recursion counts for one function never leak into a sibling's.
type Signals struct {
	MaxLoopNesting          int  `json:"max_loop_nesting"`
	MaxComprehensionNesting int  `json:"max_comprehension_nesting"`
	IsRecursive             bool `json:"is_recursive"`
	RecursiveCallCount      int  `json:"recursive_call_count"`
	HasBranchingRecursion   bool `json:"has_branching_recursion"`
	HasSlicing              bool `json:"has_slicing"`
	AllocationCount         int  `json:"allocation_count"`
	HasLogHalvingPattern    bool `json:"has_log_halving_pattern"`
}

// FunctionReport is the analysis of a single function definition, including
// nested definitions found by the full-tree walk.
type FunctionReport struct {
	Name                 string         `json:"name"`
	Line                 int            `json:"line"`
	TimeComplexity       string         `json:"time_complexity"`
	SpaceComplexity      string         `json:"space_complexity"`
	CyclomaticComplexity int            `json:"cyclomatic_complexity"`
	Signals              Signals        `json:"signals"`
	LOC                  LOCReport      `json:"loc"`
	Halstead             HalsteadReport `json:"halstead"`
	MaintainabilityIndex float64        `json:"maintainability_index"`
	MILabel              string         `json:"mi_label"`
}

// FileReport is the full structural profile of one submission.
type FileReport struct {
	LOC                       LOCReport        `json:"loc"`
	Halstead                  HalsteadReport   `json:"halstead"`
	Functions                 []FunctionReport `json:"functions"`
	TotalCyclomaticComplexity int              `json:"total_cyclomatic_complexity"`
	MaintainabilityIndex      float64          `json:"maintainability_index"`
	MILabel                   string           `json:"mi_label"`
	BigODistribution          map[string]int   `json:"big_o_distribution"`
}

// LanguageReport is the gate's language-identity verdict.
type LanguageReport struct {
	IsPython bool   `json:"is_python"`
	Reason   string `json:"reason"`
}

// ReadinessFinding tags one optimization opportunity with its location.
type ReadinessFinding struct {
	Type       string `json:"type"`
	Line       int    `json:"line"`
	Name       string `json:"name,omitempty"`
	Suggestion string `json:"suggestion"`
}

// ReadinessReport aggregates the optimization-readiness scan.
type ReadinessReport struct {
	Optimizable  bool               `json:"optimizable"`
	FindingCount int                `json:"finding_count"`
	Findings     []ReadinessFinding `json:"findings"`
}

// GateReport is the merged output of the safety & syntax gate. A non-empty
// Aborted reason is fatal to the pipeline; scan findings only annotate.
type GateReport struct {
	Language     LanguageReport  `json:"language"`
	Syntax       string          `json:"syntax,omitempty"`
	Security     []string        `json:"security"`
	RuntimeRisks []string        `json:"runtime_risks"`
	Optimization ReadinessReport `json:"optimization"`
	Aborted      string          `json:"aborted,omitempty"`
}

// RankedModel is one backend's scored standing after aggregation.
type RankedModel struct {
	Model      string    `json:"model"`
	Score      float64   `json:"score"`
	Confidence float64   `json:"confidence"`
	Risk       RiskLabel `json:"risk"`
	SyntaxOK   bool      `json:"syntax_ok"`
	LatencyMS  int64     `json:"latency_ms"`
	Error      string    `json:"error,omitempty"`
}

// OptimizationOutcome is the aggregator's verdict: the winning rewrite plus
// the full ranking. On total failure Success is false and OptimizedCode
// carries the original text unchanged.
type OptimizationOutcome struct {
	Success               bool          `json:"success"`
	OptimizedCode         string        `json:"optimized_code"`
	WinningModel          string        `json:"winning_model"`
	Score                 float64       `json:"score"`
	Confidence            float64       `json:"confidence"`
	Risk                  RiskLabel     `json:"risk"`
	ChangesApplied        []string      `json:"changes_applied"`
	AdditionalSuggestions []string      `json:"additional_suggestions"`
	SyntaxValid           bool          `json:"syntax_valid"`
	RankedModels          []RankedModel `json:"ranked_models"`
	Error                 string        `json:"error,omitempty"`
}

// LevelTwoReport is the generative-optimizer slice of the pipeline result.
type LevelTwoReport struct {
	WinningModel          string        `json:"winning_model"`
	Score                 float64       `json:"score"`
	Confidence            float64       `json:"confidence"`
	Risk                  RiskLabel     `json:"risk"`
	ChangesApplied        []string      `json:"changes_applied"`
	AdditionalSuggestions []string      `json:"additional_suggestions"`
	RankedModels          []RankedModel `json:"ranked_models"`
	SyntaxValid           bool          `json:"syntax_valid"`
}

// PipelineResult is the uniform result shape returned for every request.
// Absence of optimization is represented by identical original/optimized
// code plus an explanatory note, never by a missing field.
type PipelineResult struct {
	RunID string `json:"run_id"`

	PassedErrorCheck bool `json:"passed_error_check"`
	PassedComplexity bool `json:"passed_complexity"`
	OptimizationRan  bool `json:"optimization_ran"`

	ErrorReport       GateReport  `json:"error_report"`
	OriginalAnalysis  *FileReport `json:"original_analysis"`
	OptimizedAnalysis *FileReport `json:"optimized_analysis"`

	OriginalCode      string            `json:"original_code"`
	OptimizedCode     string            `json:"optimized_code"`
	OptimizationLevel OptimizationLevel `json:"optimization_level"`

	L1Changes []string       `json:"l1_changes"`
	L2        LevelTwoReport `json:"l2"`

	Error string `json:"error,omitempty"`
}
