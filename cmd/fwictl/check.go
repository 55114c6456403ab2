package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/couchcryptid/fwi-service/internal/artifact"
	"github.com/couchcryptid/fwi-service/internal/domain"
	"github.com/couchcryptid/fwi-service/internal/predict"
	"github.com/spf13/cobra"
)

// phase tracks pass/fail for a check phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

var errCheckFailed = errors.New("artifact check failed")

func newCheckCmd(a *app) *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify that every model gives a finite FWI across the physical input bounds",
		Long: `Load the artifact store, confirm the schema order, then sweep each input
from its lower to its upper bound with the others held at their defaults,
running every model at each point.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1, got %d", steps)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "=== FWI Artifact Check ===")
			fmt.Fprintln(out)

			svc, b, err := a.service(cmd)
			if err != nil {
				fmt.Fprintf(out, "FATAL: %v\n", err)
				return err
			}

			phases := []*phase{
				checkSchema(b),
				checkDefaults(cmd, svc),
				checkSweep(cmd, svc, steps),
			}
			if !report(out, phases, len(svc.Models()), steps) {
				return errCheckFailed
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 10, "points per input between its bounds")
	return cmd
}

func checkSchema(b *artifact.Bundle) *phase {
	p := &phase{name: "Phase 1: Schema alignment"}
	for i, name := range b.Manifest.Schema {
		if name != domain.FeatureNames[i] {
			p.errorf("schema[%d] is %q, want %q", i, name, domain.FeatureNames[i])
		}
	}
	names := b.Registry.Names()
	for i, ref := range b.Manifest.Models {
		if i >= len(names) || names[i] != ref.Name {
			p.errorf("registry order differs from manifest at %d (%s)", i, ref.Name)
		}
	}
	return p
}

func checkDefaults(cmd *cobra.Command, svc *predict.Service) *phase {
	p := &phase{name: "Phase 2: Default inputs"}
	for _, name := range svc.Models() {
		pred, err := svc.Predict(cmd.Context(), domain.DefaultInputs(), name)
		if err != nil {
			p.errorf("%s: %v", name, err)
			continue
		}
		if pred.RiskLevel != domain.Classify(pred.FWI) {
			p.errorf("%s: risk level %s does not match FWI %g", name, pred.RiskLevel, pred.FWI)
		}
	}
	return p
}

func checkSweep(cmd *cobra.Command, svc *predict.Service, steps int) *phase {
	p := &phase{name: "Phase 3: Physical bounds sweep"}
	for i, spec := range domain.Schema {
		for _, x := range sweepPoints(spec, steps) {
			values := domain.DefaultInputs().Values()
			values[i] = x
			v := domain.FeatureVectorFromValues(values)

			for _, name := range svc.Models() {
				pred, err := svc.Predict(cmd.Context(), v, name)
				switch {
				case err != nil:
					p.errorf("%s=%g %s: %v", spec.Name, x, name, err)
				case !domain.IsFinite(pred.FWI):
					p.errorf("%s=%g %s: non-finite FWI %g", spec.Name, x, name, pred.FWI)
				}
			}
		}
	}
	return p
}

// sweepPoints returns steps+1 evenly spaced values from Min to Max, or just
// 0 and 1 for categorical fields.
func sweepPoints(spec domain.FieldSpec, steps int) []float64 {
	if spec.Categorical {
		return []float64{0, 1}
	}
	points := make([]float64, steps+1)
	for k := range points {
		points[k] = spec.Bounds.Min + (spec.Bounds.Max-spec.Bounds.Min)*float64(k)/float64(steps)
	}
	return points
}

func report(out io.Writer, phases []*phase, models, steps int) bool {
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Models: %d, inputs: %d, steps per input: %d\n", models, domain.NumFeatures, steps)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll checks passed.")
		return true
	}
	fmt.Fprintln(out, "\nCheck FAILED.")
	return false
}
