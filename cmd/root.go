package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/cogdistort/internal/samples"
)

var rootCmd = &cobra.Command{
	Use:   "cogdistort",
	Short: "Classify statements by cognitive distortion",
	Long: "cogdistort labels short Spanish statements with the cognitive distortion they show,\n" +
		"using a pre-trained TF-IDF + linear classifier bundle.\n\n" +
		"Without a subcommand it classifies the built-in examples, prints a table,\n" +
		"writes the results CSV and prints the label distribution.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd)
		if err != nil {
			return err
		}
		return runClassify(cmd, env, samples.Statements(), outputOpts{
			format:  formatTable,
			csvPath: env.cfg.Report.CSVPath,
			chart:   true,
		})
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file (overrides COGDISTORT_CONFIG env var)")
	rootCmd.PersistentFlags().String("bundle", "", "Path to the classifier bundle directory or archive")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides COGDISTORT_DB env var)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(bundleCmd)
	rootCmd.AddCommand(interactiveCmd)
	rootCmd.AddCommand(versionCmd)
}
