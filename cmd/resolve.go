package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/calresolve/internal/action"
	"github.com/teemow/calresolve/internal/logging"
	"github.com/teemow/calresolve/internal/resolver"
)

type resolveOptions struct {
	appFlags
	account       string
	calendarID    string
	confirmDelete string
	jsonOutput    bool
}

func newResolveCmd() *cobra.Command {
	var opts resolveOptions

	cmd := &cobra.Command{
		Use:   "resolve [request]",
		Short: "Resolve a single natural-language calendar request",
		Long: `Interpret one request and carry it out against Google Calendar.

Vague cancellations print the matching candidates instead of deleting
anything. Delete the one you meant with --confirm-delete <event id>.

Examples:
  calresolve resolve "lunch with Sam tomorrow at noon" --yolo
  calresolve resolve "cancel my dentist appointment" --yolo
  calresolve resolve --confirm-delete abc123 --yolo`,
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.confirmDelete == "" && len(args) == 0 {
				return fmt.Errorf("a request is required unless --confirm-delete is given")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runResolve(ctx, cmd.OutOrStdout(), opts, strings.Join(args, " "))
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&opts.account, "account", "", "Google account name (default: 'default')")
	cmd.Flags().StringVar(&opts.calendarID, "calendar", action.DefaultCalendarID, "Calendar ID used by --confirm-delete")
	cmd.Flags().StringVar(&opts.confirmDelete, "confirm-delete", "", "Delete the event with this ID, as picked from a candidate list")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print the outcome as JSON")

	return cmd
}

func runResolve(ctx context.Context, out io.Writer, opts resolveOptions, text string) error {
	logger := logging.New(os.Stderr, opts.debug)

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, !opts.yolo, logger, nil)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	serverContext, err := a.serverContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() { _ = serverContext.Shutdown() }()

	cal, err := serverContext.CalendarForAccount(opts.account)
	if err != nil {
		return err
	}

	var outcome *resolver.Outcome
	if opts.confirmDelete != "" {
		outcome = a.resolver.ConfirmDelete(ctx, cal, opts.calendarID, opts.confirmDelete)
	} else {
		outcome = a.resolver.Resolve(ctx, cal, text)
	}

	if err := printOutcome(out, outcome, opts.jsonOutput); err != nil {
		return err
	}
	if outcome.Failed() {
		return fmt.Errorf("request failed: %s", outcome.Category)
	}
	return nil
}

// printOutcome writes outcome for a human, or as JSON.
func printOutcome(w io.Writer, outcome *resolver.Outcome, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(outcome)
	}

	if _, err := fmt.Fprintln(w, outcome.Message); err != nil {
		return err
	}
	if outcome.Kind != resolver.KindDisambiguation || outcome.Disambiguation == nil {
		return nil
	}
	for i, c := range outcome.Disambiguation.Candidates {
		if _, err := fmt.Fprintf(w, "  %d. %s  %s  (id: %s, score %.2f)\n",
			i+1, c.Summary, c.Start.Format("Mon Jan 2 15:04"), c.ID, c.Score); err != nil {
			return err
		}
	}
	return nil
}
