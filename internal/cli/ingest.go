package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ingest [content]",
		Short: "Store a memory",
		Long:  "Store a memory. Content can be a positional arg or piped via stdin. Without --title, the first 50 characters of content become the title.",
		Run:   runIngest,
	}

	cmd.Flags().String("title", "", "Memory title (derived from content when empty)")
	cmd.Flags().StringP("tags", "t", "", "Comma-separated tags")

	RootCmd.AddCommand(cmd)
}

func runIngest(cmd *cobra.Command, args []string) {
	title, _ := cmd.Flags().GetString("title")
	tagsStr, _ := cmd.Flags().GetString("tags")

	// Content: positional arg first, then stdin
	var content string
	if len(args) > 0 {
		content = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			content = string(b)
		}
	}

	var tags []string
	if tagsStr != "" {
		for _, t := range strings.Split(tagsStr, ",") {
			t = strings.TrimSpace(t)
			if t != "" {
				tags = append(tags, t)
			}
		}
	}

	e, s, err := openEngine()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	mem, err := e.Ingest(cmd.Context(), getOwner(), title, content, tags)
	if err != nil {
		exitErr("ingest", err)
	}

	b, _ := json.Marshal(mem)
	fmt.Println(string(b))
}
