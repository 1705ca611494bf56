package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"sleepreport/domain/journal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newListenCmd() *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Long-poll Telegram and store replies from TELEGRAM_CHAT_ID in the journal",
		Long: `Wait up to TELEGRAM_LONGPOLL_TIMEOUT_SECONDS for new messages, store each
reply from the configured chat once and confirm it. Messages from other chats
are acknowledged and dropped. The update offset is kept in
TELEGRAM_LISTENER_STATE_PATH.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer c.Shutdown(ctx)
			return c.Listener(once).Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Run a single long poll and exit")
	return cmd
}

func newJournalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect or clear stored check-in replies",
	}
	cmd.AddCommand(newJournalListCmd(), newJournalPurgeCmd())
	return cmd
}

func newJournalListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the newest journal entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer c.Shutdown(ctx)

			entries, err := c.Journal.Entries(ctx, limit)
			if err != nil {
				return err
			}
			printEntries(cmd.OutOrStdout(), entries)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of entries to show")
	return cmd
}

func newJournalPurgeCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete every journal entry (the update offset is kept)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !confirmPurge(cmd.InOrStdin(), cmd.OutOrStdout()) {
				fmt.Fprintln(cmd.OutOrStdout(), color.YellowString("Aborted, nothing deleted"))
				return nil
			}

			ctx := cmd.Context()
			c, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer c.Shutdown(ctx)

			deleted, err := c.Journal.Purge(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("Deleted %d journal entries", deleted))
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")
	return cmd
}

// confirmPurge accepts only an explicit "yes"
func confirmPurge(r io.Reader, w io.Writer) bool {
	fmt.Fprint(w, "This deletes ALL journal entries. Type yes to continue: ")
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(line), "yes")
}

func printEntries(w io.Writer, entries []journal.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, color.YellowString("Journal is empty"))
		return
	}
	gray := color.New(color.FgHiBlack).SprintFunc()
	for _, e := range entries {
		from := e.FromName
		if e.FromUsername != "" {
			from = "@" + e.FromUsername
		}
		if from == "" {
			from = e.FromID
		}
		fmt.Fprintf(w, "%s  %-12s %s\n", gray(e.ReceivedAt.String()), from, e.Text)
	}
}
