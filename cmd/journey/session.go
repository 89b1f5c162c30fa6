package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/journey/internal/cli"
	"github.com/aretw0/journey/internal/presentation/tui"
	"github.com/aretw0/journey/pkg/ports"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored sessions",
	Long:  `List, inspect, and remove sessions in the configured session store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store ports.StateStore) error {
			return listSessions(ctx, cmd.OutOrStdout(), store)
		})
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show the state of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		// Markdown is only rendered for people; pipes get JSON.
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			asJSON = true
		}
		return withStore(cmd, func(ctx context.Context, store ports.StateStore) error {
			return showSession(ctx, cmd.OutOrStdout(), store, args[0], asJSON)
		})
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if !all && len(args) == 0 {
			return fmt.Errorf("requires at least one session id, or --all")
		}
		return withStore(cmd, func(ctx context.Context, store ports.StateStore) error {
			return removeSessions(ctx, cmd.OutOrStdout(), store, args, all)
		})
	},
}

var sessionPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove expired sessions",
	Long:  `Deletes expired sessions from backends that keep them until asked. Redis expires keys on its own.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store ports.StateStore) error {
			return pruneSessions(ctx, cmd.OutOrStdout(), store)
		})
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionPruneCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionRmCmd)

	sessionShowCmd.Flags().Bool("json", false, "Print the raw state as JSON")
	sessionRmCmd.Flags().Bool("all", false, "Remove every stored session")
}

func withStore(cmd *cobra.Command, fn func(context.Context, ports.StateStore) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, _, closeStore, err := cli.OpenStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	return fn(cmd.Context(), store)
}

func listSessions(ctx context.Context, w io.Writer, store ports.StateStore) error {
	sessions, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("error listing sessions: %w", err)
	}

	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions found.")
		return nil
	}

	fmt.Fprintln(w, "Sessions:")
	for _, s := range sessions {
		fmt.Fprintln(w, "- "+s)
	}
	return nil
}

func showSession(ctx context.Context, w io.Writer, store ports.StateStore, sessionID string, asJSON bool) error {
	state, err := store.Load(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("error loading session '%s': %w", sessionID, err)
	}

	if asJSON {
		data, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling state: %w", err)
		}
		fmt.Fprintln(w, string(data))
		return nil
	}

	out, err := tui.NewRenderer()(tui.SessionMarkdown(state))
	if err != nil {
		return err
	}
	fmt.Fprint(w, out)
	return nil
}

func removeSessions(ctx context.Context, w io.Writer, store ports.StateStore, ids []string, all bool) error {
	if all {
		var err error
		ids, err = store.List(ctx)
		if err != nil {
			return fmt.Errorf("error listing sessions: %w", err)
		}
	}

	failed := 0
	for _, sessionID := range ids {
		if err := store.Delete(ctx, sessionID); err != nil {
			fmt.Fprintf(w, "Error removing '%s': %v\n", sessionID, err)
			failed++
			continue
		}
		fmt.Fprintf(w, "Removed session '%s'\n", sessionID)
	}

	if failed > 0 {
		return fmt.Errorf("failed to remove %d sessions", failed)
	}
	return nil
}

func pruneSessions(ctx context.Context, w io.Writer, store ports.StateStore) error {
	p, ok := ports.AsPruner(store)
	if !ok {
		fmt.Fprintln(w, "Nothing to prune: the backend expires sessions on its own.")
		return nil
	}
	n, err := p.Prune(ctx)
	if err != nil {
		return fmt.Errorf("error pruning sessions: %w", err)
	}
	fmt.Fprintf(w, "Pruned %d expired session(s).\n", n)
	return nil
}
