package cli

import (
	"context"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sicali-client/internal/app"
	"github.com/noah-isme/sicali-client/internal/service"
	"github.com/noah-isme/sicali-client/pkg/export"
)

// NewExportCommand creates the export command group.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render grade sheets and attendance summaries to files",
		Long: `Render grade sheets and attendance summaries as CSV or PDF.

Files are written under EXPORTS_DIR. When EXPORTS_BASE_URL is set the result
includes a signed download link served by the gateway.`,
	}

	var gradesGroup, gradesSubject int64
	var gradesType string
	grades := &cobra.Command{
		Use:           "grades",
		Short:         "Export the grades of a group",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				format, err := export.ParseFormat(gradesType)
				if err != nil {
					return usageError("%v", err)
				}
				res, err := a.Exports.ExportGrades(ctx, gradesGroup, gradesSubject, format)
				if err != nil {
					return err
				}
				return out.Success(res, exportTable(res))
			})
		},
	}
	grades.Flags().Int64Var(&gradesGroup, "group", 0, "group id")
	grades.Flags().Int64Var(&gradesSubject, "subject", 0, "only this subject")
	grades.Flags().StringVar(&gradesType, "type", string(export.FormatCSV), "file type (csv|pdf)")
	cmd.AddCommand(grades)

	var attGroup int64
	var attType string
	attendance := &cobra.Command{
		Use:           "attendance",
		Short:         "Export the attendance summary of a group",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				format, err := export.ParseFormat(attType)
				if err != nil {
					return usageError("%v", err)
				}
				res, err := a.Exports.ExportAttendance(ctx, attGroup, format)
				if err != nil {
					return err
				}
				return out.Success(res, exportTable(res))
			})
		},
	}
	attendance.Flags().Int64Var(&attGroup, "group", 0, "group id")
	attendance.Flags().StringVar(&attType, "type", string(export.FormatCSV), "file type (csv|pdf)")
	cmd.AddCommand(attendance)

	cmd.AddCommand(&cobra.Command{
		Use:           "list",
		Short:         "List stored exports, oldest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				names, err := a.Files.List()
				if err != nil {
					return err
				}
				return out.Success(names, fileTable(names))
			})
		},
	})

	var olderThan time.Duration
	cleanup := &cobra.Command{
		Use:           "cleanup",
		Short:         "Delete stored exports older than a duration",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				if olderThan <= 0 {
					return usageError("--older-than must be positive")
				}
				removed, err := a.Files.CleanupOlderThan(olderThan)
				if err != nil {
					return err
				}
				out.VerboseLog("removed %d files", len(removed))
				return out.Success(removed, fileTable(removed))
			})
		},
	}
	cleanup.Flags().DurationVar(&olderThan, "older-than", 7*24*time.Hour, "minimum age of deleted files")
	cmd.AddCommand(cleanup)

	return cmd
}

func exportTable(res *service.ExportResult) *Table {
	t := &Table{Headers: []string{"ARCHIVO", "TIPO", "FILAS", "ENLACE"}}
	t.Rows = append(t.Rows, []string{res.File, string(res.Format), strconv.Itoa(res.Rows), res.URL})
	return t
}

func fileTable(names []string) *Table {
	t := &Table{Headers: []string{"ARCHIVO"}}
	for _, n := range names {
		t.Rows = append(t.Rows, []string{n})
	}
	return t
}
