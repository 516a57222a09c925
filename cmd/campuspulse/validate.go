package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/campuspulse"
	"github.com/jpalmerr/campuspulse/config"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a CampusPulse configuration file without starting the server.

This command parses the YAML, expands environment variables, builds every
widget (including grid expansions) and checks that widget names are unique.
It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  campuspulse validate -c config.yaml
  campuspulse validate --config /etc/campuspulse/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// building catches template and cross-widget errors that parsing cannot
	opts, err := config.BuildOptions(cfg)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	d, err := campuspulse.New(opts...)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var projects, galleries int
	for _, w := range d.Widgets() {
		switch w.Kind() {
		case campuspulse.KindProjects:
			projects++
		case campuspulse.KindGallery:
			galleries++
		}
	}
	direct, fromGrids := cfg.WidgetCount()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Port:    %d\n", cfg.Port)
	fmt.Fprintf(out, "  Widgets: %d direct + %d from grids = %d total\n",
		direct, fromGrids, direct+fromGrids)
	fmt.Fprintf(out, "  Kinds:   %d projects, %d gallery\n", projects, galleries)

	return nil
}
