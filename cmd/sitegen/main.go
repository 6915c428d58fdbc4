// Command sitegen builds course schedules and pages from a YAML course file without a database.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/course-site-api/internal/content"
	"github.com/noah-isme/course-site-api/internal/models"
	"github.com/noah-isme/course-site-api/internal/service"
	"github.com/noah-isme/course-site-api/pkg/logger"
	"github.com/noah-isme/course-site-api/pkg/storage"
)

type rootOptions struct {
	verbose bool
	compat  bool
	log     *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "sitegen",
		Short:         "Generate course schedules and pages from a course file",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logger.NewConsole(opts.verbose)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			opts.log = l
			return nil
		},
	}
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log progress")
	cmd.PersistentFlags().BoolVar(&opts.compat, "compat", false, "Treat unconfigured assignments as missing instead of failing")

	cmd.AddCommand(newScheduleCmd(opts), newRenderCmd(opts), newDayIndexCmd(opts))
	return cmd
}

func newScheduleCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "schedule <course.yaml>",
		Short: "Print the packed schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := buildView(args[0], opts)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(view.Schedule)
			}
			return printSchedule(cmd.OutOrStdout(), view)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the schedule as JSON")
	return cmd
}

func newRenderCmd(opts *rootOptions) *cobra.Command {
	var (
		out     string
		formats []string
	)
	cmd := &cobra.Command{
		Use:   "render <course.yaml>",
		Short: "Write the HTML pages and exports to a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := buildView(args[0], opts)
			if err != nil {
				return err
			}
			site, err := storage.NewSiteStorage(out)
			if err != nil {
				return err
			}

			renderer := service.NewPageRenderer(opts.log)
			for _, page := range service.OfferingPages {
				html, err := renderer.Render(page, *view)
				if err != nil {
					return fmt.Errorf("render %s: %w", page, err)
				}
				if err := write(cmd.OutOrStdout(), site, page+".html", html); err != nil {
					return err
				}
			}

			exporter := service.NewExportService(nil, opts.log)
			for _, raw := range formats {
				file, err := exporter.Render(*view, models.ExportFormat(strings.ToLower(raw)))
				if err != nil {
					return fmt.Errorf("export %s: %w", raw, err)
				}
				if err := write(cmd.OutOrStdout(), site, file.Filename, file.Data); err != nil {
					return err
				}
			}
			opts.log.Info("site rendered", zap.String("dir", site.Root()), zap.Int("days", len(view.Schedule.Days)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "./public", "Output directory")
	cmd.Flags().StringSliceVar(&formats, "formats", []string{"ics"}, "Exports to write (csv, pdf, xlsx, ics)")
	return cmd
}

func newDayIndexCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dayindex <course.yaml> <YYYY-MM-DD>",
		Short: "Print the day index of a calendar date",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			detail, err := content.Load(args[0])
			if err != nil {
				return err
			}
			semester := &detail.Semester
			date, err := time.ParseInLocation("2006-01-02", args[1], semester.Location())
			if err != nil {
				return fmt.Errorf("invalid date %q: %w", args[1], err)
			}
			idx, err := semester.DayIndexOf(date)
			if err != nil {
				return err
			}
			line := fmt.Sprintf("%d %s", idx, date.Weekday())
			if reason, ok := semester.IsCancelled(date); ok {
				line += " cancelled: " + reason
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), line)
			return err
		},
	}
}

func buildView(path string, opts *rootOptions) (*service.OfferingView, error) {
	detail, err := content.Load(path)
	if err != nil {
		return nil, err
	}
	plan, err := service.PlanOffering(detail, service.PlanOptions{StrictAssignments: !opts.compat})
	if err != nil {
		return nil, fmt.Errorf("build schedule: %w", err)
	}
	opts.log.Debug("schedule built",
		zap.String("offering", detail.Offering.Code),
		zap.Int("days_used", plan.Schedule.Stats.DaysUsed),
		zap.Int("minutes_unused", plan.Schedule.Stats.MinutesUnused),
	)
	return &service.OfferingView{
		Offering: detail.Offering,
		Semester: &detail.Semester,
		Topics:   detail.Topics,
		Schedule: plan.Schedule,
	}, nil
}

func printSchedule(w io.Writer, view *service.OfferingView) error {
	due := map[int][]string{}
	for _, a := range view.Schedule.Assignments {
		name := a.Assignment.Title
		if name == "" {
			name = fmt.Sprintf("%s %d", a.Assignment.Type, a.Index+1)
		}
		due[a.DueDay] = append(due[a.DueDay], name+" due")
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DAY\tDATE\tMIN\tCONTENT")
	for _, day := range view.Schedule.Days {
		var parts []string
		for _, e := range day.Entries {
			label := e.Title
			if e.Parts > 1 {
				label = fmt.Sprintf("%s (%d/%d)", e.Title, e.Part, e.Parts)
			}
			parts = append(parts, label)
		}
		parts = append(parts, due[day.Index]...)
		fmt.Fprintf(tw, "%d\t%s %s\t%d\t%s\n", day.Index, day.Weekday[:3], day.Date.Format("Jan 02"), day.MeetingMinutes, strings.Join(parts, "; "))
	}
	stats := view.Schedule.Stats
	fmt.Fprintf(tw, "\n%d of %d meeting days used, %d minutes unused\n", stats.DaysUsed, stats.MeetingDays, stats.MinutesUnused)
	return tw.Flush()
}

func write(w io.Writer, site *storage.SiteStorage, name string, data []byte) error {
	rel, err := site.Save(name, data)
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	_, err = fmt.Fprintln(w, rel)
	return err
}
