package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/belphemur/hebrew-calendar/internal/calendar"
	"github.com/belphemur/hebrew-calendar/internal/constants"
	"github.com/belphemur/hebrew-calendar/internal/dataset"
	"github.com/belphemur/hebrew-calendar/internal/viewhelpers"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [file]",
	Short: "Load a dataset and check its integrity digest",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loader, name := fileLoader(firstArg(args))
		data, err := loader.Load(cmd.Context(), name)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "✗ %s: %v\n", name, err)
			return err
		}

		integrity := data.Integrity()
		status := "no digest stored"
		if integrity.Verified {
			status = "digest verified"
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ %s: %s\n", name, status)
		fmt.Fprintf(out, "  computed:   %s\n", integrity.Computed)
		fmt.Fprintf(out, "  days:       %d\n", data.DayCount())
		fmt.Fprintf(out, "  scriptures: %d\n", data.ScriptureCount())
		return nil
	},
}

var digestCmd = &cobra.Command{
	Use:   "digest [file]",
	Short: "Print the stored and computed digests of a dataset without rejecting it",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := firstArg(args)
		if path == "" {
			path = cfg.DatasetPath()
		}
		provider := dataset.NewFileProvider(filepath.Dir(path))
		raw, err := provider.ReadResource(cmd.Context(), filepath.Base(path))
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		doc, err := dataset.Parse(raw)
		if err != nil {
			return err
		}

		stored, _ := doc[constants.IntegrityField].(string)
		computed := newVerifier().ComputeDigest(doc)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "stored:   %s\n", orNone(stored))
		fmt.Fprintf(out, "computed: %s\n", computed)
		if stored != "" && stored != computed {
			fmt.Fprintln(out, "match:    no")
		} else if stored != "" {
			fmt.Fprintln(out, "match:    yes")
		}
		return nil
	},
}

var dayCmd = &cobra.Command{
	Use:   "day <yyyy-mm-dd>",
	Short: "Print the dataset entry for a date",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := calendar.ParseDate(args[0])
		if err != nil {
			return err
		}
		repo, err := loadRepository(cmd)
		if err != nil {
			return err
		}
		day, ok := repo.GetDate(date)
		if !ok {
			return fmt.Errorf("no entry for %s", date)
		}
		return printJSON(cmd.OutOrStdout(), day)
	},
}

var monthCmd = &cobra.Command{
	Use:   "month <yyyy-mm>",
	Short: "Print a month as week rows, or every slot with --json",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := time.Parse(constants.MonthLayout, args[0])
		if err != nil {
			return fmt.Errorf("invalid month %q, expected YYYY-MM: %w", args[0], err)
		}
		repo, err := loadRepository(cmd)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd.OutOrStdout(), repo.GetMonth(t.Year(), t.Month()))
		}
		printMonth(cmd.OutOrStdout(), repo, t.Year(), t.Month(), cfg.WeekStartDay())
		return nil
	},
}

var scriptureCmd = &cobra.Command{
	Use:   "scripture <reference>",
	Short: "Print the text of a scripture reference",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref := strings.Join(args, " ")
		repo, err := loadRepository(cmd)
		if err != nil {
			return err
		}
		text, ok := repo.GetScripture(ref)
		if !ok {
			return fmt.Errorf("no text for %q", ref)
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{dayCmd, monthCmd, scriptureCmd} {
		c.Flags().String("file", "", "dataset file (default: configured dataset)")
	}
	monthCmd.Flags().Bool("json", false, "print one slot per day as JSON")
	rootCmd.AddCommand(verifyCmd, digestCmd, dayCmd, monthCmd, scriptureCmd)
}

func loadRepository(cmd *cobra.Command) (*calendar.Repository, error) {
	path, _ := cmd.Flags().GetString("file")
	loader, name := fileLoader(path)
	data, err := loader.Load(cmd.Context(), name)
	if err != nil {
		return nil, err
	}
	return calendar.NewRepository(data), nil
}

// printMonth renders a month grid: day number, phase glyph and markers for
// Sabbaths (S), new moons (N), new years (Y) and feasts (*)
func printMonth(out io.Writer, repo *calendar.Repository, year int, month time.Month, weekStart time.Weekday) {
	name, weeks := viewhelpers.StructureMonth(repo, year, month, weekStart)
	fmt.Fprintln(out, name)

	var header []string
	for i := range 7 {
		header = append(header, fmt.Sprintf("%-7s", time.Weekday((int(weekStart)+i)%7).String()[:3]))
	}
	fmt.Fprintln(out, strings.TrimRight(strings.Join(header, " "), " "))

	var feasts []string
	for _, week := range weeks {
		var cells []string
		for _, cell := range week {
			if !cell.IsCurrentMonth {
				cells = append(cells, fmt.Sprintf("%-7s", ""))
				continue
			}
			text := strconv.Itoa(cell.DayOfMonth)
			if cell.Day != nil {
				text += " " + cell.Day.Phase.Glyph() + markers(cell.Day)
				if cell.Day.Feast != nil {
					feasts = append(feasts, fmt.Sprintf("%s  %s", cell.Date, cell.Day.Feast.Name))
				}
			}
			cells = append(cells, fmt.Sprintf("%-7s", text))
		}
		fmt.Fprintln(out, strings.TrimRight(strings.Join(cells, " "), " "))
	}

	if len(feasts) > 0 {
		fmt.Fprintln(out)
		for _, f := range feasts {
			fmt.Fprintln(out, f)
		}
	}
}

func markers(d *calendar.Day) string {
	var m string
	if d.IsSabbath {
		m += "S"
	}
	if d.IsNewMoon {
		m += "N"
	}
	if d.IsNewYear {
		m += "Y"
	}
	if d.Feast != nil {
		m += "*"
	}
	return m
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
