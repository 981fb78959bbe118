// Package cli implements the recall CLI commands.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/recallai/recall/internal/embedding"
	"github.com/recallai/recall/internal/engine"
	"github.com/recallai/recall/internal/store"
)

var (
	dbPath    string
	ownerFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "recall",
	Short: "Private memory store with relevance search",
	Long:  "Store personal memories and retrieve the ones relevant to a question. SQLite-backed, single binary, strict per-owner isolation.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $RECALL_DB or ~/.recall/recall.db)")
	RootCmd.PersistentFlags().StringVarP(&ownerFlag, "owner", "o", "", "Owner identity (default: $RECALL_OWNER)")
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	if env := os.Getenv("RECALL_DB"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".recall", "recall.db")
}

// getOwner resolves the caller identity. The CLI is a trusted collaborator;
// real deployments resolve this from authentication before it reaches the
// engine.
func getOwner() string {
	if ownerFlag != "" {
		return ownerFlag
	}
	return os.Getenv("RECALL_OWNER")
}

func openEngine() (*engine.Engine, *store.SQLiteStore, error) {
	s, err := store.NewSQLiteStore(getDBPath())
	if err != nil {
		return nil, nil, err
	}
	e := engine.New(s, engine.Options{Embedder: embedding.NewFromEnv()})
	return e, s, nil
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
