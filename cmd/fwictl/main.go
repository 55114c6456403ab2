// Command fwictl runs predictions and integrity checks against an artifact
// store without starting the HTTP service.
//
// Usage:
//
//	fwictl models --artifacts models
//	fwictl predict --model "Random Forest" --temperature 31 --rh 40 --ws 18 --ffmc 88 --dmc 25 --isi 7
//	fwictl check --artifacts models --steps 20
package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/fwi-service/internal/artifact"
	"github.com/couchcryptid/fwi-service/internal/observability"
	"github.com/couchcryptid/fwi-service/internal/predict"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds settings shared by all subcommands.
type app struct {
	v *viper.Viper
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	a.v.SetDefault("artifacts", "models")
	_ = a.v.BindEnv("artifacts", "ARTIFACT_DIR")

	root := &cobra.Command{
		Use:          "fwictl",
		Short:        "Fire Weather Index prediction tool",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("artifacts", "models", "artifact store directory (env ARTIFACT_DIR)")
	root.PersistentFlags().Bool("verbose", false, "log artifact loading to stderr")
	_ = a.v.BindPFlag("artifacts", root.PersistentFlags().Lookup("artifacts"))
	_ = a.v.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))

	root.AddCommand(newPredictCmd(a), newModelsCmd(a), newCheckCmd(a))
	return root
}

func (a *app) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if a.v.GetBool("verbose") {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (a *app) load(ctx context.Context, cmd *cobra.Command) (*artifact.Bundle, error) {
	return artifact.NewLoader(a.v.GetString("artifacts"), a.logger(cmd.ErrOrStderr())).Load(ctx)
}

func (a *app) service(cmd *cobra.Command) (*predict.Service, *artifact.Bundle, error) {
	b, err := a.load(cmd.Context(), cmd)
	if err != nil {
		return nil, nil, err
	}
	svc := predict.New(b.Scaler, b.Registry, a.logger(cmd.ErrOrStderr()), observability.NewUnregisteredMetrics())
	return svc, b, nil
}
