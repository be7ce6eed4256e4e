package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/mailqa/internal/adapters/driving/tui"
	"github.com/custodia-labs/mailqa/internal/logger"
)

var tuiSession string

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal UI.

Pick a day, ingest it, then ask questions. Each answer shows the messages it
was drawn from in a sources panel.

Controls:
  Tab       - Switch between date and question (Shift+Tab goes back)
  Enter     - Ingest the date / ask the question
  Ctrl+S    - Toggle the sources panel
  Ctrl+L    - List sessions; Enter switches to the selected one
  PgUp/PgDn - Scroll the answer
  Esc       - Clear the current input / go back
  F1        - Help
  Ctrl+C    - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().StringVarP(&tuiSession, "session", "s", "", "session to use (default: default)")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	if err := requireQA(); err != nil {
		return err
	}

	ports := &tui.Ports{
		QA:       qaService,
		Sessions: sessionService,
	}
	if svc, err := resolveIngest(""); err == nil {
		ports.Ingest = svc
	}

	app, err := tui.NewApp(ports, tui.WithSession(tuiSession))
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context())

	// Log records would corrupt the alternate screen.
	logger.SetOutput(io.Discard)
	defer logger.SetOutput(os.Stderr)

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
