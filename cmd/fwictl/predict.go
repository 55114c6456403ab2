package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/couchcryptid/fwi-service/internal/domain"
	"github.com/couchcryptid/fwi-service/internal/model"
	"github.com/spf13/cobra"
)

func newPredictCmd(a *app) *cobra.Command {
	var (
		modelName string
		asJSON    bool
		values    [domain.NumFeatures]float64
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the FWI for one set of weather inputs",
		Long: `Predict the Fire Weather Index with one of the registered models.
Every input has a default, so only the fields that differ need to be given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, _, err := a.service(cmd)
			if err != nil {
				return err
			}

			raw := make(map[string]any, domain.NumFeatures)
			for i, name := range domain.FeatureNames {
				raw[name] = values[i]
			}

			p, err := svc.Run(cmd.Context(), raw, modelName)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"model":      p.Model,
					"fwi":        p.FWI,
					"risk_level": p.RiskLevel,
					"advisory":   p.RiskLevel.Advisory(),
					"inputs":     p.Inputs,
				})
			}

			fmt.Fprintf(out, "Model:      %s\n", p.Model)
			fmt.Fprintf(out, "FWI:        %.2f\n", p.FWI)
			fmt.Fprintf(out, "Risk level: %s\n", p.RiskLevel)
			fmt.Fprintln(out, p.RiskLevel.Advisory())
			return nil
		},
	}

	defaults := domain.DefaultInputs().Values()
	for i, spec := range domain.Schema {
		usage := fmt.Sprintf("%s [%g, %g]", spec.Label, spec.Bounds.Min, spec.Bounds.Max)
		cmd.Flags().Float64Var(&values[i], strings.ToLower(spec.Name), defaults[i], usage)
	}
	cmd.Flags().StringVar(&modelName, "model", "Ridge Regression", "model to use")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the prediction as JSON")
	return cmd
}

func newModelsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models in the artifact store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := a.load(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range b.Registry.Entries() {
				fmt.Fprintf(out, "%-20s %-14s %s\n", e.Name, e.Kind, model.Describe(e.Predictor))
			}
			return nil
		},
	}
}
