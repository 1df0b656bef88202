package chomp

import (
	"context"
	"fmt"
	"strings"

	"chompie/internal/diff"
	"chompie/internal/logging"
)

// Result is the observable outcome of one verification run.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner runs the verification command once against the current tree.
// Errors wrap ErrLaunch or ErrUndetermined.
type Runner interface {
	Run(ctx context.Context) (Result, error)
}

// Mismatch lists which fields of a result differ from the baseline.
type Mismatch struct {
	ExitCode bool
	Stdout   bool
	Stderr   bool
}

// Any reports whether at least one field differs.
func (m Mismatch) Any() bool {
	return m.ExitCode || m.Stdout || m.Stderr
}

func (m Mismatch) String() string {
	var parts []string
	if m.ExitCode {
		parts = append(parts, "exit code")
	}
	if m.Stdout {
		parts = append(parts, "stdout")
	}
	if m.Stderr {
		parts = append(parts, "stderr")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

// Oracle judges results against the baseline. Equality is exact on all
// three fields; there is no normalization and no partial match.
type Oracle struct {
	baseline Result
}

// NewOracle wraps a captured baseline.
func NewOracle(baseline Result) *Oracle {
	return &Oracle{baseline: baseline}
}

// Baseline returns the reference result.
func (o *Oracle) Baseline() Result { return o.baseline }

// Compare reports which fields of r differ from the baseline.
func (o *Oracle) Compare(r Result) Mismatch {
	return Mismatch{
		ExitCode: r.ExitCode != o.baseline.ExitCode,
		Stdout:   r.Stdout != o.baseline.Stdout,
		Stderr:   r.Stderr != o.baseline.Stderr,
	}
}

// Matches reports whether r is equivalent to the baseline.
func (o *Oracle) Matches(r Result) bool {
	return !o.Compare(r).Any()
}

// Explain renders a mismatch for debug logs.
func (o *Oracle) Explain(r Result) string {
	m := o.Compare(r)
	if !m.Any() {
		return "match"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "mismatch in %s", m)
	if m.ExitCode {
		fmt.Fprintf(&sb, "\nexit code: baseline %d, candidate %d", o.baseline.ExitCode, r.ExitCode)
	}
	if m.Stdout {
		sb.WriteString("\n")
		sb.WriteString(diff.Outputs("stdout", o.baseline.Stdout, r.Stdout))
	}
	if m.Stderr {
		sb.WriteString("\n")
		sb.WriteString(diff.Outputs("stderr", o.baseline.Stderr, r.Stderr))
	}
	return sb.String()
}

// CaptureBaseline runs the command once on the untouched tree. Any failure
// to obtain a usable result wraps ErrBaseline.
func CaptureBaseline(ctx context.Context, runner Runner) (Result, error) {
	timer := logging.StartTimer(logging.CategoryEngine, "baseline")
	defer timer.Stop()

	res, err := runner.Run(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrBaseline, err)
	}
	logging.Engine("baseline: exit=%d stdout=%d bytes stderr=%d bytes", res.ExitCode, len(res.Stdout), len(res.Stderr))
	logging.Audit(logging.AuditEvent{Type: logging.AuditBaseline, Message: fmt.Sprintf("exit=%d", res.ExitCode)})
	return res, nil
}
