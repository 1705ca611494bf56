package main

import (
	"fmt"
	"os"
	"path/filepath"

	"sleepreport/adapters/excel"
	"sleepreport/app"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	var day string
	var send bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the sleep report image for the latest night or --day",
		Long: `Render the sleep report image and optionally send it to Telegram.

Without --day the latest night is used and a night that was already sent is
skipped. With --day the report is always rendered and sent.

Example: sleepreport report --day 2024-03-09 --send`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer c.Shutdown(ctx)

			result, err := c.Reports.RunOnce(ctx, app.ReportRequest{Day: day, Deliver: send})
			if err != nil {
				return err
			}
			if result.Skipped {
				fmt.Println(color.YellowString("Already sent %s; nothing to do", result.SleepKey))
				return nil
			}
			printCards(os.Stdout, result.Day, result.Cards)
			fmt.Printf("Image: %s\n", result.ImagePath)
			if result.Sent {
				fmt.Println(color.GreenString("Sent to Telegram"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&day, "day", "", "Local night to report (YYYY-MM-DD); default latest")
	cmd.Flags().BoolVar(&send, "send", false, "Deliver the image to Telegram")
	return cmd
}

func newSummaryCmd() *cobra.Command {
	var day string
	var send bool
	var format string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Compare a night against the previous week in plain text",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer c.Shutdown(ctx)

			result, err := c.Summaries.RunOnce(ctx, app.ReportRequest{Day: day, Deliver: send})
			if err != nil {
				return err
			}
			if result.Skipped {
				fmt.Println(color.YellowString("Already sent %s; nothing to do", result.SleepKey))
				return nil
			}

			switch format {
			case "markdown":
				fmt.Print(result.Markdown)
			case "html":
				fmt.Print(result.HTML)
			default:
				fmt.Println(result.Text)
			}
			if result.Sent {
				fmt.Println(color.GreenString("Sent to Telegram"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&day, "day", "", "Local night to summarize (YYYY-MM-DD); default latest")
	cmd.Flags().BoolVar(&send, "send", false, "Deliver the text to Telegram")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text|markdown|html")
	return cmd
}

func newScheduleCmd() *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Poll for new nights and deliver SUMMARY_OUTPUT (text or image)",
		Long: `Poll every CHECK_INTERVAL_SECONDS plus up to JITTER_SECONDS and deliver
each new night once. Delivery is skipped when Telegram is not configured.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer c.Shutdown(ctx)
			return c.Scheduler(once).Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Run a single check and exit")
	return cmd
}

func newExportCmd() *cobra.Command {
	var day string
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a night, its baseline history and its session to an xlsx workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer c.Shutdown(ctx)

			data, result, err := c.Reports.Export(ctx, day)
			if err != nil {
				return err
			}
			if out == "" {
				out = filepath.Join(c.Config.Report.OutputDir, fmt.Sprintf("sleep_%s.xlsx", result.Day))
			}

			exporter, err := excel.NewExporter(data)
			if err != nil {
				return err
			}
			defer exporter.Close()
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return err
			}
			if err := exporter.SaveAs(out); err != nil {
				return err
			}
			fmt.Println(color.GreenString("Wrote %s (%d summaries, %d samples)", out, len(data.Summaries), len(data.Samples)))
			return nil
		},
	}

	cmd.Flags().StringVar(&day, "day", "", "Local night to export (YYYY-MM-DD); default latest")
	cmd.Flags().StringVar(&out, "out", "", "Workbook path; default REPORT_OUTPUT_DIR/sleep_<day>.xlsx")
	return cmd
}
