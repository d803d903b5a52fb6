package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/memora/pkg/domain/model"
	"github.com/secmon-lab/memora/pkg/usecase"
	"github.com/secmon-lab/memora/pkg/utils/async"
	"github.com/urfave/cli/v3"
)

func cmdAsk() *cli.Command {
	var userID int64
	var verbose bool
	var appCfg appConfig

	flags := []cli.Flag{
		&cli.Int64Flag{
			Name:        "user-id",
			Aliases:     []string{"u"},
			Usage:       "User whose memories ground the answer",
			Value:       1,
			Sources:     cli.EnvVars("MEMORA_USER_ID"),
			Destination: &userID,
		},
		&cli.BoolFlag{
			Name:        "verbose",
			Aliases:     []string{"v"},
			Usage:       "Show retrieved memories and rejected candidates",
			Destination: &verbose,
		},
	}
	flags = append(flags, appCfg.Flags()...)

	return &cli.Command{
		Name:      "ask",
		Usage:     "Run one chat turn and print the reply",
		ArgsUsage: "<message>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			message := strings.Join(c.Args().Slice(), " ")
			if strings.TrimSpace(message) == "" {
				return goerr.New("message is required")
			}
			if userID <= 0 {
				return goerr.New("user-id must be positive", goerr.V("user_id", userID))
			}

			// Embedding updates run inline so they finish before exit.
			a, err := appCfg.build(ctx, usecase.WithDispatcher(async.Inline))
			if err != nil {
				return err
			}
			defer a.Close()

			turn, err := a.uc.Chat.Chat(ctx, model.UserID(userID), message)
			if err != nil {
				return goerr.Wrap(err, "chat failed")
			}

			printTurn(os.Stdout, turn, verbose)
			return nil
		},
	}
}

func printTurn(w io.Writer, turn *model.ChatTurn, verbose bool) {
	header := color.New(color.FgCyan, color.Bold)
	saved := color.New(color.FgGreen)
	dim := color.New(color.FgHiBlack)

	if verbose {
		_, _ = header.Fprintf(w, "Retrieved (%s)\n", turn.Intent)
		for _, m := range turn.Retrieved {
			_, _ = dim.Fprintf(w, "  #%d %s\n", m.ID, m.Content)
		}
		_, _ = fmt.Fprintln(w)
	}

	_, _ = header.Fprintln(w, "Reply")
	_, _ = fmt.Fprintln(w, turn.Reply)

	for _, o := range turn.Outcomes {
		switch {
		case o.State == model.CandidatePersisted:
			_, _ = saved.Fprintf(w, "+ saved #%d: %s\n", o.MemoryID, o.Candidate.Content)
		case verbose && o.Reason != "":
			_, _ = dim.Fprintf(w, "- %s (%s): %s\n", o.State, o.Reason, o.Candidate.Content)
		case verbose:
			_, _ = dim.Fprintf(w, "- %s: %s\n", o.State, o.Candidate.Content)
		}
	}
}
