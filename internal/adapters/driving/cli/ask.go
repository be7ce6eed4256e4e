package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/mailqa/internal/core/domain"
	"github.com/custodia-labs/mailqa/internal/core/vectorindex"
)

// Output formats accepted by --output.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

var (
	askSession     string
	askK           int
	askOutput      string
	askShowSources bool
	askDate        string
	askSource      string
)

var askCmd = &cobra.Command{
	Use:   "ask QUESTION",
	Short: "Answer a question from the ingested email",
	Long: `Retrieves the messages most similar to the question and asks the language
model to answer using only those messages.

When the answer is not in the messages the model says so, and the answer is
reported as not grounded.

Use --date to ingest a day before asking, which is how questions work when
index.persist is off.

Examples:
  mailqa ask "When is the budget review?"
  mailqa ask "Who is organising lunch?" --sources -k 5
  mailqa ask "What did finance send?" --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askSession, "session", "s", domain.DefaultSession, "session to query")
	askCmd.Flags().IntVarP(&askK, "top-k", "k", 0, "number of messages used as context (0 = retrieval.top_k)")
	askCmd.Flags().StringVarP(&askOutput, "output", "o", outputText, "output format: text, json or yaml")
	askCmd.Flags().BoolVar(&askShowSources, "sources", false, "print the messages used as context")
	askCmd.Flags().StringVarP(&askDate, "date", "d", "", "ingest this day (YYYY-MM-DD) before asking")
	askCmd.Flags().StringVar(&askSource, "source", "", "message source used with --date")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := requireQA(); err != nil {
		return err
	}
	switch askOutput {
	case outputText, outputJSON, outputYAML:
	default:
		return fmt.Errorf("%w: unknown output format %q", domain.ErrInvalidInput, askOutput)
	}

	h, err := askHandle(cmd)
	if err != nil {
		return err
	}

	record, err := qaService.AnswerWithK(cmd.Context(), h, args[0], askK)
	if err != nil {
		return err
	}

	switch askOutput {
	case outputJSON:
		data, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal answer: %w", err)
		}
		cmd.Println(string(data))
	case outputYAML:
		data, err := yaml.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal answer: %w", err)
		}
		cmd.Print(string(data))
	default:
		printAnswer(cmd, record, askShowSources)
	}
	return nil
}

func askHandle(cmd *cobra.Command) (*vectorindex.Handle, error) {
	if askDate == "" {
		return sessionService.Open(cmd.Context(), askSession)
	}
	day, err := parseDay(askDate)
	if err != nil {
		return nil, err
	}
	svc, err := resolveIngest(askSource)
	if err != nil {
		return nil, err
	}
	h, report, err := svc.IngestDay(cmd.Context(), askSession, day)
	if err != nil {
		return nil, err
	}
	if askOutput == outputText {
		printReport(cmd, report)
	}
	return h, nil
}

func printAnswer(cmd *cobra.Command, record *domain.AnswerRecord, withSources bool) {
	cmd.Println(record.Answer)
	if !record.Grounded {
		cmd.Println()
		cmd.Println("(not found in the ingested messages)")
	}
	if !withSources {
		return
	}

	cmd.Println()
	if len(record.Sources) == 0 {
		cmd.Println("Sources: none")
		return
	}
	cmd.Println("Sources:")
	for i, src := range record.Sources {
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, sourceTitle(src), src.Score)
		if from := src.Metadata[domain.MetaFrom]; from != "" {
			cmd.Printf("      From: %s\n", from)
		}
		if received := src.Metadata[domain.MetaReceived]; received != "" {
			cmd.Printf("      Received: %s\n", received)
		}
	}
}

func sourceTitle(src domain.Source) string {
	return domain.TextUnit{ID: src.ID, Content: src.Content, Metadata: src.Metadata}.Title()
}
