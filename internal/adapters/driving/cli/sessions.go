package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage indexed sessions",
	Long: `A session is a named corpus built by 'mailqa ingest'. Each ingest replaces
the session it targets; other sessions are untouched.`,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed sessions",
	Args:  cobra.NoArgs,
	RunE:  runSessionsList,
}

var sessionsDropCmd = &cobra.Command{
	Use:   "drop NAME",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDrop,
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsDropCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func runSessionsList(cmd *cobra.Command, _ []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	sessions, err := sessionService.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		cmd.Println("No sessions. Run 'mailqa ingest' to build one.")
		return nil
	}

	cmd.Println("Sessions:")
	for _, s := range sessions {
		cmd.Printf("  %-16s %4d units  %s  %s\n",
			s.Name, s.Units, s.Model, s.BuiltAt.Local().Format(time.DateTime))
	}
	return nil
}

func runSessionsDrop(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}
	if err := sessionService.Drop(cmd.Context(), args[0]); err != nil {
		return err
	}
	cmd.Printf("Session %q dropped.\n", args[0])
	return nil
}
