package permission

import "sort"

type LintReport struct {
	// Unknown keys are stored but not registered; gates can never ask for them.
	Unknown []string `json:"unknown"`
	// Unseeded keys are registered but have no permissions row yet.
	Unseeded []string `json:"unseeded"`
	// Malformed keys do not parse.
	Malformed []string `json:"malformed"`
}

func (r LintReport) Clean() bool {
	return len(r.Unknown) == 0 && len(r.Unseeded) == 0 && len(r.Malformed) == 0
}

func Lint(registry *Registry, stored []string) LintReport {
	var report LintReport
	seen := make(map[Key]bool, len(stored))
	for _, s := range stored {
		k, err := ParseKey(s)
		if err != nil {
			report.Malformed = append(report.Malformed, s)
			continue
		}
		seen[k] = true
		if !registry.Has(k) {
			report.Unknown = append(report.Unknown, s)
		}
	}
	for _, k := range registry.Keys() {
		if !seen[k] {
			report.Unseeded = append(report.Unseeded, string(k))
		}
	}
	sort.Strings(report.Unknown)
	sort.Strings(report.Malformed)
	return report
}
