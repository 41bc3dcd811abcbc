package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	host  string
	token string
)

var rootCmd = &cobra.Command{
	Use:   "tankctl",
	Short: "A CLI for operating the tank highscore bot",
	Long: `A command-line interface for decrypting and verifying database backups
and for querying the dashboard of a running tankbot.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "The address of the dashboard")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("DASHBOARD_TOKEN"), "The dashboard access token")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your command '%s'\n", err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
