package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// indexCmd is a placeholder for the optional RAG/semantic-search
// collaborator spec.md §6 names: a component that pre-indexes a repository
// to provide a per-file risk boost into the context builder (§4.2). It is
// out of scope for the core verifier, which runs correctly without it.
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build a semantic search index for the optional RAG collaborator",
	Long: `Build a semantic search index of the repository for the optional
retrieval-augmented risk-boost collaborator described in the system design.

This core binary does not ship a RAG implementation: indexing is delegated
to an external collaborator process that writes an index the context
builder can consult. This command exists so that boundary is visible on the
command line even when no collaborator is installed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("index: no RAG collaborator is configured; this core binary runs without one")
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
