package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shipshape/backend/internal/application/report"
	"github.com/shipshape/backend/internal/domain/shared/valueobject"
	"github.com/shipshape/backend/internal/domain/warehouse"
	"github.com/spf13/cobra"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// reportOutput renders one report as a table or as JSON
type reportOutput struct {
	format string
	w      io.Writer
}

func (o reportOutput) write(data any, headers []string, rows [][]string) error {
	if o.format == "json" {
		enc := json.NewEncoder(o.w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(o.w, "(none)")
		return err
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	_, err := fmt.Fprintln(o.w, t.Render())
	return err
}

func newReportCmd(c *cli) *cobra.Command {
	var (
		format string
		date   string
		days   int
		weeks  int
	)

	cmd := &cobra.Command{
		Use:       "report <unreleased|weekly|activity|companies|overdue|expiring|pending>",
		Short:     "Print a derived report from the bound slots",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"unreleased", "weekly", "activity", "companies", "overdue", "expiring", "pending"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "table" && format != "json" {
				return fmt.Errorf("unknown output format %q", format)
			}
			at := time.Now()
			if date != "" {
				t, ok := valueobject.ParseTimestamp(date).Time()
				if !ok {
					return fmt.Errorf("invalid --date %q", date)
				}
				at = t
			}
			if !cmd.Flags().Changed("days") {
				days = c.cfg.Reports.ExpiryWarningDays
			}
			if !cmd.Flags().Changed("weeks") {
				weeks = c.cfg.Reports.ActivityWeeks
			}

			stack, err := openStore(background(cmd), c.cfg, c.log, nil)
			if err != nil {
				return err
			}
			defer func() { _ = stack.Close() }()

			reports := report.NewReportService(stack.Store.Store, nil, c.log)
			out := reportOutput{format: format, w: cmd.OutOrStdout()}
			return runReport(out, reports, args[0], at, days, weeks)
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "table", "Output format (table|json)")
	cmd.Flags().StringVar(&date, "date", "", "Reference day, defaults to today")
	cmd.Flags().IntVar(&days, "days", 0, "expiring: look-ahead window in days")
	cmd.Flags().IntVar(&weeks, "weeks", 0, "activity: number of weeks")
	return cmd
}

func runReport(out reportOutput, reports *report.ReportService, name string, at time.Time, days, weeks int) error {
	switch name {
	case "unreleased":
		rows := reports.UnreleasedShipments()
		return out.write(rows, shipmentHeaders, shipmentRows(rows))

	case "pending":
		rows := reports.PendingAssignment()
		return out.write(rows, shipmentHeaders, shipmentRows(rows))

	case "weekly":
		period, released := reports.ReleasedInWeek(at)
		arrivals := reports.ArrivalsBetween(period.Start, period.End)
		if out.format == "json" {
			return out.write(map[string]any{
				"period":   period,
				"arrivals": arrivals,
				"released": released,
			}, nil, nil)
		}
		fmt.Fprintf(out.w, "Week %s - %s\n\nArrivals\n",
			report.FormatDate(&period.Start), report.FormatDate(&period.End))
		if err := out.write(arrivals, trailerHeaders, trailerRows(arrivals)); err != nil {
			return err
		}
		fmt.Fprintln(out.w, "\nReleased")
		return out.write(released, shipmentHeaders, shipmentRows(released))

	case "activity":
		if weeks < 1 || weeks > 52 {
			return fmt.Errorf("--weeks must be between 1 and 52")
		}
		buckets := reports.WeeklyActivity(at.AddDate(0, 0, -7*(weeks-1)), weeks)
		rows := make([][]string, 0, len(buckets))
		for _, b := range buckets {
			rows = append(rows, []string{
				report.FormatDate(&b.WeekStart),
				strconv.Itoa(b.Arrivals),
				strconv.Itoa(b.Releases),
			})
		}
		return out.write(buckets, []string{"Week of", "Arrivals", "Releases"}, rows)

	case "companies":
		summaries := reports.CompanySummaries()
		rows := make([][]string, 0, len(summaries))
		for _, s := range summaries {
			rows = append(rows, []string{
				s.Company,
				strconv.Itoa(s.TrailerCount),
				strconv.Itoa(s.ShipmentCount),
				strconv.Itoa(s.TotalQuantity),
				s.TotalWeight.StringFixed(2),
				strconv.Itoa(s.UnreleasedCount),
			})
		}
		return out.write(summaries,
			[]string{"Company", "Trailers", "Shipments", "Quantity", "Weight", "Unreleased"}, rows)

	case "overdue":
		late := reports.OverdueReleases(at)
		rows := make([][]string, 0, len(late))
		for _, o := range late {
			rows = append(rows, []string{
				strconv.Itoa(o.StsJob),
				o.TrailerName,
				report.FormatTimestamp(o.StorageExpiryDate),
				strconv.Itoa(o.DaysOverdue),
			})
		}
		return out.write(late, []string{"STS job", "Trailer", "Storage expiry", "Days over"}, rows)

	case "expiring":
		if days < 0 {
			return fmt.Errorf("--days cannot be negative")
		}
		trailers := reports.StorageExpiringWithin(at, time.Duration(days)*24*time.Hour)
		return out.write(trailers, trailerHeaders, trailerRows(trailers))
	}
	return fmt.Errorf("unknown report %q", name)
}

var shipmentHeaders = []string{"STS job", "Trailer", "Company", "Importer", "Locations", "Released at"}

func shipmentRows(rows []report.ShipmentRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			strconv.Itoa(r.StsJob),
			r.TrailerName,
			r.Company,
			r.Importer,
			locationNames(r.Locations),
			report.FormatTimestamp(r.ReleasedAt),
		})
	}
	return out
}

var trailerHeaders = []string{"ID", "Name", "Status", "Company", "Arrival", "Storage expiry"}

func trailerRows(trailers []warehouse.Trailer) [][]string {
	out := make([][]string, 0, len(trailers))
	for _, t := range trailers {
		out = append(out, []string{
			t.ID,
			t.Name,
			t.Status.String(),
			t.Company,
			report.FormatTimestamp(t.ArrivalDate),
			report.FormatTimestamp(t.StorageExpiryDate),
		})
	}
	return out
}

func locationNames(locs []warehouse.Location) string {
	names := make([]string, 0, len(locs))
	for _, l := range locs {
		names = append(names, l.Name)
	}
	return strings.Join(names, ", ")
}
