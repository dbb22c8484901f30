package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/belphemur/hebrew-calendar/internal/database"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent dataset load attempts",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		if limit <= 0 {
			return fmt.Errorf("--limit must be positive, got %d", limit)
		}

		db, err := openStateReadOnly()
		if err != nil {
			return err
		}
		defer db.Close()

		loads, err := database.NewLoadStore(db).RecentLoads(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd.OutOrStdout(), loads)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "LOADED\tSOURCE\tSTATUS\tDAYS\tDIGEST\tERROR")
		for _, rec := range loads {
			detail := rec.ErrorKind
			if rec.ErrorMessage != "" {
				detail += ": " + rec.ErrorMessage
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
				rec.LoadedAt.Local().Format(time.DateTime), rec.Source, rec.Status, rec.DayCount, shortDigest(rec.ComputedDigest), detail)
		}
		return tw.Flush()
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "number of attempts to show")
	historyCmd.Flags().Bool("json", false, "print the records as JSON")
	rootCmd.AddCommand(historyCmd)
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
