package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/mailqa/internal/core/domain"
)

var (
	ingestDate    string
	ingestSource  string
	ingestSession string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index one day of email",
	Long: `Fetches every message received on the given day and rebuilds the session
from them. The previous contents of the session are replaced, never merged.

A day without messages leaves an empty session; questions against it report
that nothing was ingested.

Examples:
  mailqa ingest --date 2024-05-02
  mailqa ingest --date 2024-05-02 --source maildir --session work`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestDate, "date", "d", "", "day to ingest (YYYY-MM-DD, defaults to today)")
	ingestCmd.Flags().StringVar(&ingestSource, "source", "", "message source: graph, gmail or maildir (defaults to source.kind)")
	ingestCmd.Flags().StringVarP(&ingestSession, "session", "s", domain.DefaultSession, "session to rebuild")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	day := time.Now().UTC().Truncate(24 * time.Hour)
	if ingestDate != "" {
		var err error
		if day, err = parseDay(ingestDate); err != nil {
			return err
		}
	}

	svc, err := resolveIngest(ingestSource)
	if err != nil {
		return err
	}

	cmd.Printf("Ingesting %s from %s...\n", day.Format(time.DateOnly), svc.SourceName())
	_, report, err := svc.IngestDay(cmd.Context(), ingestSession, day)
	if err != nil {
		return err
	}
	printReport(cmd, report)
	return nil
}

func printReport(cmd *cobra.Command, report domain.IngestReport) {
	if report.Empty() {
		cmd.Printf("Nothing to ingest: session %q is empty.\n", report.Session)
		return
	}
	cmd.Printf("Indexed %d units from %d messages into session %q (%s).\n",
		report.Units, report.Fetched, report.Session, report.Elapsed.Round(time.Millisecond))
}
