package cmd

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"churnapi/config"
	"churnapi/dashboard"
	"churnapi/db"
	"churnapi/logger"
)

var (
	reportFrom string
	reportDB   string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Manage the evaluation report database read by the sqlite dashboard source",
}

var reportExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write dashboard statistics into a report database",
	Long: `export writes the builtin statistics, or a yaml snapshot given with --from,
into the sqlite database used by the "sqlite" dashboard source. Existing rows are replaced.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(); err != nil {
			return err
		}
		return exportReport(cmd.Context(), reportFrom, reportDB)
	},
}

func init() {
	reportExportCmd.Flags().StringVar(&reportFrom, "from", "", "yaml snapshot to export, the builtin statistics when empty")
	reportExportCmd.Flags().StringVar(&reportDB, "db", "report.db", "report database to write")
	reportCmd.AddCommand(reportExportCmd)
}

func exportReport(ctx context.Context, from, path string) error {
	source := config.DashboardConfig{Source: config.DashboardSourceBuiltin}
	if from != "" {
		source = config.DashboardConfig{Source: config.DashboardSourceFile, Path: from}
	}
	snapshot, err := dashboard.Load(ctx, source)
	if err != nil {
		return err
	}

	store, err := db.Create(path)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.SaveReport(ctx, dashboard.ToReport(snapshot)); err != nil {
		return errors.Wrapf(err, "export report to %s", path)
	}
	logger.Infof("exported %s statistics to %s", source.Source, path)
	return nil
}
