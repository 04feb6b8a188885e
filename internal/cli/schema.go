package cli

import (
	"fmt"

	"github.com/raphaelgruber/jaketune/internal/config"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the training config",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := config.TrainingConfigSchema()
		if err != nil {
			return fmt.Errorf("generate schema: %w", err)
		}
		fmt.Println(schema)
		return nil
	},
}
