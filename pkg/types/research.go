package types

// ExecutionResult is the outcome of one planned query. Results are appended
// to the research state in submission order and never mutated afterwards.
type ExecutionResult struct {
	Query      string `json:"query"`
	ToolName   string `json:"tool_name"`
	ToolOutput string `json:"tool_output"`
	IsSuccess  bool   `json:"is_success"`
	Summary    string `json:"summary"`
}

// ExecutionPlan is a single planning turn's decision.
type ExecutionPlan struct {
	Thoughts   string   `json:"thoughts"`
	Queries    []string `json:"queries"`
	IsComplete bool     `json:"is_complete"`
}

// ExecutionOutput is what an execution agent reports for one query.
type ExecutionOutput struct {
	IsSuccess  bool   `json:"is_success"`
	Summary    string `json:"summary"`
	ToolName   string `json:"tool_name,omitempty"`
	ToolOutput string `json:"tool_output,omitempty"`
}

// Citation references a successful execution result used by a report.
type Citation struct {
	Index    int    `json:"index"` // 1-based position in the execution history
	Query    string `json:"query"`
	ToolName string `json:"tool_name"`
}
