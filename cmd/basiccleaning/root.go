package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Flag names of the cleaning run. They keep the underscore spelling used by
// the job definitions that invoke this step.
const (
	flagInputArtifact     = "input_artifact"
	flagOutputArtifact    = "output_artifact"
	flagOutputType        = "output_type"
	flagOutputDescription = "output_description"
	flagMinPrice          = "min_price"
	flagMaxPrice          = "max_price"
)

// NewRootCmd creates the root command. Run without a subcommand, it
// performs one cleaning run.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "basiccleaning",
		Short: "Remove price outliers and incomplete rows from a CSV artifact",
		Long: `basiccleaning downloads a raw CSV artifact, keeps only the rows whose
"price" lies between --min_price and --max_price (inclusive) and that have
no missing value in any column, and publishes the cleaned file as a new
artifact version.

Inverted bounds are accepted and produce a header-only artifact.

Examples:
  # Clean the latest raw sample
  basiccleaning --input_artifact sample.csv:latest \
    --output_artifact clean_sample.csv --output_type clean_sample \
    --output_description "Data with outliers and null values removed" \
    --min_price 10 --max_price 350

  # Register the raw file first
  basiccleaning artifacts put sample.csv --type raw_data`,
		Version:       getVersion(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCleanCmd,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .basiccleaning in current or home directory)")

	cmd.Flags().String(flagInputArtifact, "", "Artifact reference of the raw CSV (name, name:latest or name:vN)")
	cmd.Flags().String(flagOutputArtifact, "", "Name of the cleaned artifact")
	cmd.Flags().String(flagOutputType, "", "Type of the cleaned artifact")
	cmd.Flags().String(flagOutputDescription, "", "Description of the cleaned artifact")
	cmd.Flags().Float64(flagMinPrice, 0, "Minimum price, inclusive")
	cmd.Flags().Float64(flagMaxPrice, 0, "Maximum price, inclusive")
	for _, name := range []string{
		flagInputArtifact, flagOutputArtifact, flagOutputType,
		flagOutputDescription, flagMinPrice, flagMaxPrice,
	} {
		_ = cmd.MarkFlagRequired(name)
	}

	cmd.AddCommand(NewArtifactsCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
