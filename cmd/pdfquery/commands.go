package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Divyansh-Atri/pdf-query/internal/domain"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file.pdf>",
	Short: "Ingest a PDF into its own searchable index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return exitError(err)
		}
		defer a.close()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return exitError(fmt.Errorf("reading %s: %w", args[0], err))
		}

		result, err := a.service.Ingest(cmd.Context(), filepath.Base(args[0]), data)
		if err != nil {
			if result.DocumentID != "" {
				fmt.Fprintf(os.Stderr, "Document %s recorded as %s: %s\n",
					result.DocumentID, result.Status, result.FailureReason)
			}
			return exitError(err)
		}

		fmt.Printf("Uploaded %s\n", result.Filename)
		fmt.Printf("  id:     %s\n", result.DocumentID)
		fmt.Printf("  pages:  %d\n", result.PageCount)
		fmt.Printf("  chunks: %d\n", result.ChunkCount)
		return nil
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <document-id> <question>",
	Short: "Ask a question about an uploaded document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return exitError(err)
		}
		defer a.close()

		answer, err := a.service.Ask(cmd.Context(), args[0], args[1])
		if err != nil {
			return exitError(err)
		}

		fmt.Println(answer.Text)
		if len(answer.Sources) > 0 {
			fmt.Println("\nSources:")
			for _, source := range answer.Sources {
				fmt.Printf("  page %d, chunk %d (similarity %.3f)\n",
					source.Page, source.Index, source.Similarity)
			}
		}
		return nil
	},
}

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List uploaded documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return exitError(err)
		}
		defer a.close()

		docs, err := a.service.Documents(cmd.Context())
		if err != nil {
			return exitError(err)
		}
		if len(docs) == 0 {
			fmt.Println("No documents uploaded.")
			return nil
		}

		for _, doc := range docs {
			fmt.Printf("%s  %-30s  %-7s  %3d pages  %s\n",
				doc.ID, doc.Filename, doc.Status, doc.PageCount,
				doc.UploadedAt.Local().Format("2006-01-02 15:04"))
			if doc.Status == domain.StatusFailed && doc.FailureReason != "" {
				fmt.Printf("    reason: %s\n", doc.FailureReason)
			}
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <document-id>",
	Short: "Show a document's chat history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return exitError(err)
		}
		defer a.close()

		records, err := a.service.History(cmd.Context(), args[0])
		if err != nil {
			return exitError(err)
		}
		if len(records) == 0 {
			fmt.Println("No history for this document.")
			return nil
		}

		for _, record := range records {
			fmt.Printf("[%s]\n", record.CreatedAt.Local().Format("2006-01-02 15:04"))
			fmt.Printf("Q: %s\n", record.Question)
			fmt.Printf("A: %s\n\n", record.Answer)
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <document-id>",
	Short: "Delete a document, its index and its chat history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return exitError(err)
		}
		defer a.close()

		if err := a.service.DeleteDocument(cmd.Context(), args[0]); err != nil {
			return exitError(err)
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

var clearChatCmd = &cobra.Command{
	Use:   "clear-chat <document-id>",
	Short: "Clear a document's chat history, keeping the document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return exitError(err)
		}
		defer a.close()

		if err := a.service.ClearChat(cmd.Context(), args[0]); err != nil {
			return exitError(err)
		}
		fmt.Printf("Cleared chat history for %s\n", args[0])
		return nil
	},
}
