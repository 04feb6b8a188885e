package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/raphaelgruber/jaketune/internal/dataset"
	"github.com/spf13/cobra"
)

var (
	prepareOut      string
	prepareTemplate string
	prepareStats    bool
)

var prepareCmd = &cobra.Command{
	Use:   "prepare <conversations.json>",
	Short: "Format a conversation export into training examples",
	Long: heredoc.Doc(`
		Read a conversation export and write one training example per
		assistant message as JSON lines. Every example uses the fixed Jake
		system prompt and the user prompt "Tell me a Jake story".

		Examples:
		  jaketune prepare data/jake_training.json
		  jaketune prepare data/jake_training.json --template llama --out llama.jsonl
		  jaketune prepare data/jake_training.json --stats
	`),
	Args: cobra.ExactArgs(1),
	RunE: runPrepare,
}

func init() {
	prepareCmd.Flags().StringVarP(&prepareOut, "out", "o", "train.jsonl", "output JSONL file (- for stdout)")
	prepareCmd.Flags().StringVarP(&prepareTemplate, "template", "t", dataset.ChatML.Name,
		"instruction template ("+strings.Join(dataset.TemplateNames(), ", ")+")")
	prepareCmd.Flags().BoolVar(&prepareStats, "stats", false, "print token statistics")
}

func runPrepare(cmd *cobra.Command, args []string) error {
	tmpl, err := dataset.TemplateByName(prepareTemplate)
	if err != nil {
		return err
	}

	examples, err := dataset.LoadExamples(args[0], tmpl, os.Stderr)
	if err != nil {
		return err
	}

	if prepareOut == "-" {
		if err := dataset.WriteJSONL(os.Stdout, examples); err != nil {
			return err
		}
	} else {
		if err := dataset.WriteJSONLFile(prepareOut, examples); err != nil {
			return err
		}
		fmt.Printf("Prepared %d training examples in %s\n", len(examples), prepareOut)
	}

	if prepareStats {
		s := dataset.Summarize(examples)
		fmt.Fprintf(os.Stderr, "Examples:      %d\n", s.Examples)
		fmt.Fprintf(os.Stderr, "Total tokens:  %d\n", s.TotalTokens)
		fmt.Fprintf(os.Stderr, "Mean tokens:   %.1f (stddev %.1f)\n", s.MeanTokens, s.StdDevTokens)
		fmt.Fprintf(os.Stderr, "Median tokens: %.0f\n", s.MedianTokens)
		fmt.Fprintf(os.Stderr, "P95 tokens:    %.0f\n", s.P95Tokens)
		fmt.Fprintf(os.Stderr, "Max tokens:    %.0f\n", s.MaxTokens)
	}

	logger.Debug("prepared dataset", "input", args[0], "template", tmpl.Name, "examples", len(examples))
	return nil
}
