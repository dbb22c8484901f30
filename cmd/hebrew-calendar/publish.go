package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/belphemur/hebrew-calendar/internal/calendar"
	"github.com/belphemur/hebrew-calendar/internal/database"
	"github.com/belphemur/hebrew-calendar/internal/publish"
	"github.com/belphemur/hebrew-calendar/internal/token"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish dataset events to Google Calendar",
	Long:  "publish mirrors feasts, Sabbaths, new moons and new years of the configured kinds into a Google Calendar. Events it created earlier are updated or removed so the calendar matches the dataset.",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, to, err := publishRange(cmd)
		if err != nil {
			return err
		}
		repo, err := loadRepository(cmd)
		if err != nil {
			return err
		}

		if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
			for _, entry := range publish.BuildEntries(repo, from, to, cfg.EventKinds()) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-8s %s\n", entry.Date, entry.Kind, entry.Summary)
			}
			return nil
		}

		if err := cfg.ValidatePublish(); err != nil {
			return err
		}
		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		manager := newCalendarManager(db)
		calendarID, _ := cmd.Flags().GetString("calendar")
		svc, err := manager.Service(cmd.Context(), calendarID)
		if err != nil {
			return err
		}

		result, err := publish.Publish(cmd.Context(), svc, repo, from, to, cfg.EventKinds())
		if result != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s..%s: %d created, %d updated, %d deleted, %d unchanged\n",
				svc.CalendarID(), from, to, result.Created, result.Updated, result.Deleted, result.Unchanged)
		}
		return err
	},
}

var calendarsCmd = &cobra.Command{
	Use:   "calendars",
	Short: "List the connected account's calendars, or select one with --select",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidatePublish(); err != nil {
			return err
		}
		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		manager := newCalendarManager(db)
		if id, _ := cmd.Flags().GetString("select"); id != "" {
			if err := manager.SelectCalendar(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Selected %s\n", id)
			return nil
		}

		items, err := manager.GetCalendarList(cmd.Context())
		if err != nil {
			return err
		}
		selected, err := manager.GetSelectedCalendar(cmd.Context())
		if err != nil {
			return err
		}
		for _, item := range items {
			mark := " "
			if item.Id == selected {
				mark = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %s\n", mark, item.Id, item.Summary)
		}
		return nil
	},
}

func init() {
	publishCmd.Flags().String("from", "", "first date to publish (default: today)")
	publishCmd.Flags().String("to", "", "last date to publish (default: from plus publish.look_ahead_days)")
	publishCmd.Flags().String("calendar", "", "calendar ID (default: the selected calendar)")
	publishCmd.Flags().String("file", "", "dataset file (default: configured dataset)")
	publishCmd.Flags().Bool("dry-run", false, "print the events instead of publishing them")
	calendarsCmd.Flags().String("select", "", "calendar ID to publish to from now on")
	rootCmd.AddCommand(publishCmd, calendarsCmd)
}

func newCalendarManager(db *database.DB) *publish.Manager {
	tokenStore := database.NewTokenStore(db)
	tm := token.NewTokenManager(tokenStore, token.NewOAuthConfig(cfg.OAuth), cfg.Publish.TokenFile)
	return publish.NewManager(tokenStore, tm, cfg.Publish.CalendarID)
}

// publishRange resolves --from and --to against the configured look-ahead
func publishRange(cmd *cobra.Command) (from, to calendar.Date, err error) {
	from, to = publish.DefaultRange(time.Now(), cfg.Publish.LookAheadDays)
	fromFlag, _ := cmd.Flags().GetString("from")
	toFlag, _ := cmd.Flags().GetString("to")

	if fromFlag != "" {
		if from, err = calendar.ParseDate(fromFlag); err != nil {
			return from, to, fmt.Errorf("invalid --from: %w", err)
		}
		if toFlag == "" {
			to = from.AddDays(cfg.Publish.LookAheadDays)
		}
	}
	if toFlag != "" {
		if to, err = calendar.ParseDate(toFlag); err != nil {
			return from, to, fmt.Errorf("invalid --to: %w", err)
		}
	}
	if to.Before(from) {
		return from, to, fmt.Errorf("--to %s is before --from %s", to, from)
	}
	return from, to, nil
}
