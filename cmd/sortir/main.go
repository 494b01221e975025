package main

import (
	"os"

	"github.com/spf13/cobra"

	"sortir-backend/internal/shared/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "sortir",
	Short:         "Document Q&A backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml or json); env vars take precedence")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func loadConfig() (config.Config, error) {
	return config.Load(cfgFile)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Stderr.WriteString("sortir: " + err.Error() + "\n")
		os.Exit(1)
	}
}
