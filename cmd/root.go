package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"docpilot/src/log"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "docpilot",
	Short: "Retrieval-augmented question answering over uploaded documents",
	Long: `docpilot ingests PDF, TXT and CSV documents into a vector store and
answers questions over them with grounded, optionally streamed completions.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.Configure(viper.GetInt("log.verbosity"))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
