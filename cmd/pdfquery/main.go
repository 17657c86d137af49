// Package main implements the pdfquery CLI: upload PDFs, ask questions
// against them and manage the resulting documents and chat history.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// configPath is the optional YAML config file.
	configPath string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pdfquery",
	Short: "Ask questions about your PDF documents",
	Long: `pdfquery ingests PDF files into a local vector index and answers
questions about them with a retrieval-augmented language model.

Each uploaded document gets its own index and chat history. Documents,
history and vectors live under the configured data directory.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default $HOME/.config/pdfquery/config.yaml)")
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(documentsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(clearChatCmd)
}

func exitError(err error) error {
	fmt.Fprintln(os.Stderr, "Error:", err)
	return err
}
