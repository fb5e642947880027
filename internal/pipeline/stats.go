package pipeline

// Stats counts what happened while a test run was turned into a document.
type Stats struct {
	Events       int `json:"events"`
	Packages     int `json:"packages"`
	Suites       int `json:"suites"`
	Tests        int `json:"tests"`
	Applied      int `json:"applied"`
	Undocumented int `json:"undocumented"`
	Internal     int `json:"internal"`
	Duplicates   int `json:"duplicates"`

	Outcomes Outcomes `json:"outcomes"`
	Errors   []string `json:"errors"`
}

// Outcomes tallies top-level test results.
type Outcomes struct {
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// AddError records a fragment that could not be merged.
func (s *Stats) AddError(err string) {
	s.Errors = append(s.Errors, err)
}

// Snapshot returns a copy that is safe to hand out and encodes errors as [] when
// there are none.
func (s *Stats) Snapshot() Stats {
	out := *s
	out.Errors = make([]string, len(s.Errors))
	copy(out.Errors, s.Errors)
	return out
}
