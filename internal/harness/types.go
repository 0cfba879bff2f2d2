package harness

// CaseResult is the outcome of one case.
type CaseResult struct {
	Name string `json:"name"`

	// Pass is true when every expectation held.
	Pass bool `json:"pass"`

	// SPARQL is the generated query; empty when compilation failed.
	SPARQL string `json:"sparql,omitempty"`

	// Err is the compile error message, if any.
	Err string `json:"error,omitempty"`

	// Errors lists the expectations that did not hold.
	Errors []string `json:"errors,omitempty"`
}

func (r *CaseResult) addError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}

// Result is the outcome of a suite.
type Result struct {
	Suite  string       `json:"suite"`
	Pass   bool         `json:"pass"`
	Cases  []CaseResult `json:"cases"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
}

// NewResult creates an empty passing result for the named suite.
func NewResult(suite string) *Result {
	return &Result{
		Suite: suite,
		Pass:  true,
		Cases: []CaseResult{},
	}
}

// Add records a case result.
func (r *Result) Add(c CaseResult) {
	r.Cases = append(r.Cases, c)
	if c.Pass {
		r.Passed++
		return
	}
	r.Failed++
	r.Pass = false
}

// FailedCases returns the results that did not pass, in suite order.
func (r *Result) FailedCases() []CaseResult {
	var out []CaseResult
	for _, c := range r.Cases {
		if !c.Pass {
			out = append(out, c)
		}
	}
	return out
}
