package doctor

import (
	"fmt"
	"io"
	"strings"
)

// Report summarizes a doctor run.
type Report struct {
	Passed int
	Warned int
	Failed int
	Fixed  int // also counted in Passed
}

// Doctor runs registered checks in order.
type Doctor struct {
	checks []Check
}

// Register adds a check.
func (d *Doctor) Register(c Check) {
	d.checks = append(d.checks, c)
}

// Run executes every check, writing each result to w as it completes.
// With fix set, failing checks that can fix themselves are repaired and
// run again.
func (d *Doctor) Run(cc *CheckContext, w io.Writer, fix bool) *Report {
	r := &Report{}
	for _, c := range d.checks {
		result := c.Run(cc)
		if fix && result.Status != StatusOK && c.CanFix() {
			if err := c.Fix(cc); err == nil {
				result = c.Run(cc)
				result.Fixed = result.Status == StatusOK
			} else {
				result.Details = append(result.Details, "fix failed: "+err.Error())
			}
		}
		printResult(w, result, cc.Verbose)

		switch {
		case result.Fixed:
			r.Fixed++
			r.Passed++
		case result.Status == StatusOK:
			r.Passed++
		case result.Status == StatusWarning:
			r.Warned++
		default:
			r.Failed++
		}
	}
	return r
}

func printResult(w io.Writer, r *CheckResult, verbose bool) {
	icon := "✓"
	switch {
	case r.Fixed:
	case r.Status == StatusWarning:
		icon = "⚠"
	case r.Status == StatusError:
		icon = "✗"
	}
	suffix := ""
	if r.Fixed {
		suffix = " (fixed)"
	}
	fmt.Fprintf(w, "  %s %s: %s%s\n", icon, r.Name, r.Message, suffix) //nolint:errcheck // best-effort output
	if verbose {
		for _, d := range r.Details {
			fmt.Fprintf(w, "      %s\n", d) //nolint:errcheck // best-effort output
		}
	}
	if r.FixHint != "" && r.Status != StatusOK && !r.Fixed {
		fmt.Fprintf(w, "      hint: %s\n", r.FixHint) //nolint:errcheck // best-effort output
	}
}

// PrintSummary writes the final summary line to w.
func PrintSummary(w io.Writer, r *Report) {
	var parts []string
	if r.Passed > 0 {
		parts = append(parts, fmt.Sprintf("%d passed", r.Passed))
	}
	if r.Warned > 0 {
		parts = append(parts, fmt.Sprintf("%d warnings", r.Warned))
	}
	if r.Failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", r.Failed))
	}
	if r.Fixed > 0 {
		parts = append(parts, fmt.Sprintf("%d fixed", r.Fixed))
	}
	if len(parts) == 0 {
		fmt.Fprintln(w, "\nNo checks ran.") //nolint:errcheck // best-effort output
		return
	}
	fmt.Fprintf(w, "\n%s\n", strings.Join(parts, ", ")) //nolint:errcheck // best-effort output
}
