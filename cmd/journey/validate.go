package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/aretw0/journey/internal/cli"
	"github.com/aretw0/journey/internal/config"
	"github.com/aretw0/journey/internal/validator"
	"github.com/aretw0/journey/pkg/adapters/file"
	"github.com/aretw0/journey/pkg/domain"
	"github.com/aretw0/journey/pkg/registry"
)

var validateCmd = &cobra.Command{
	Use:   "validate [journey-file]",
	Short: "Check the journey for consistency",
	Long: `Loads the journey, reports configuration errors (dangling destinations, unknown handlers,
missing entry point) and warns about steps that cannot be reached from the entry point.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if len(args) > 0 {
			cfg.Journey = args[0]
		}
		strict, _ := cmd.Flags().GetBool("strict")
		return runValidate(cmd.OutOrStdout(), cfg, strict)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("strict", false, "Treat lint warnings as errors")
}

// errInvalid is returned after the problems were already printed.
var errInvalid = errors.New("validation failed")

func runValidate(w io.Writer, cfg *config.Config, strict bool) error {
	out := termenv.NewOutput(w)
	fail := func(s string) termenv.Style { return out.String(s).Foreground(out.Color("#ef4444")) }
	warn := func(s string) termenv.Style { return out.String(s).Foreground(out.Color("#f59e0b")) }
	ok := func(s string) termenv.Style { return out.String(s).Foreground(out.Color("#22c55e")) }

	steps, err := file.NewLoader(cfg.Journey).LoadSteps()
	if err != nil {
		fmt.Fprintln(w, fail("✗ "+err.Error()))
		return errInvalid
	}

	reg, err := registry.New(steps, cli.Handlers(cfg))
	if err != nil {
		var cfgErr *domain.ConfigurationError
		if !errors.As(err, &cfgErr) {
			return err
		}
		fmt.Fprintln(w, fail(fmt.Sprintf("✗ %s: %d errors", cfg.Journey, len(cfgErr.Problems))))
		for _, p := range cfgErr.Problems {
			fmt.Fprintln(w, fail("  - "+p))
		}
		return errInvalid
	}

	report := validator.Lint(reg)
	for _, issue := range report.Issues {
		fmt.Fprintln(w, warn("! "+issue.String()))
	}
	if strict && !report.OK() {
		return errInvalid
	}

	fmt.Fprintln(w, ok(fmt.Sprintf("✓ %s is valid (%d steps, %d reachable)", cfg.Journey, len(steps), len(report.Reachable))))
	return nil
}
