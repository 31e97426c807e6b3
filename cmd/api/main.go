package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "wallet-session-api",
	Short: "Wallet session and transfer submission service",
	Long:  "Connects to a wallet over JSON-RPC, submits transfers to the Transactions contract and serves the session over GraphQL.",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to the environment file")
	rootCmd.AddCommand(serveCmd, historyCmd, countCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
