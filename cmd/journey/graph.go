package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/journey/internal/cli"
	"github.com/aretw0/journey/internal/presentation/graph"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the journey graph visualization",
	Long: `Outputs a Mermaid diagram (graph TD) of the steps and their rules.
With --session, the completed steps and the current step of that session are highlighted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := cli.NewLogger(cfg)
		if err != nil {
			return err
		}

		app, err := cli.Build(cmd.Context(), cfg, logger)
		if err != nil {
			return fmt.Errorf("error initializing journey: %w", err)
		}
		defer app.Close()

		var overlay *graph.GraphOverlay
		if sessionID, _ := cmd.Flags().GetString("session"); sessionID != "" {
			state, err := app.Controller.State(cmd.Context(), sessionID)
			if err != nil {
				return fmt.Errorf("error loading session '%s': %w", sessionID, err)
			}
			overlay = graph.OverlayFromState(state)
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(app.Controller.Inspect(), overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("session", "s", "", "Highlight the progress of a session")
}
