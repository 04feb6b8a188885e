package cli

import (
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/raphaelgruber/jaketune/internal/dataset"
	"github.com/raphaelgruber/jaketune/internal/llm"
	"github.com/spf13/cobra"
)

var generateTemplate string

var generateCmd = &cobra.Command{
	Use:   "generate [prompt]",
	Short: "Sample a story from the served fine-tuned model",
	Long: heredoc.Doc(`
		Render an inference prompt with the training template and send it to
		the model configured by JAKETUNE_LLM_PROVIDER (ollama or bedrock) and
		JAKETUNE_LLM_MODEL. Sampling uses temperature 0.7, top_p 0.9 and a
		repetition penalty of 1.1.

		Examples:
		  jaketune generate
		  jaketune generate "Tell me about the vacuum cleaner incident"
	`),
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateTemplate, "template", "t", dataset.ChatML.Name,
		"instruction template ("+strings.Join(dataset.TemplateNames(), ", ")+")")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	tmpl, err := dataset.TemplateByName(generateTemplate)
	if err != nil {
		return err
	}

	prompt := dataset.UserPrompt
	if len(args) == 1 {
		prompt = args[0]
	}

	model, err := llm.NewModel(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init model: %w", err)
	}

	story, err := model.Generate(ctx, tmpl.Prompt(prompt))
	if err != nil {
		return err
	}
	fmt.Println(strings.TrimSpace(story))
	return nil
}
