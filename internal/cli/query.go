package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "query [question]",
		Short: "Find memories relevant to a question",
		Long:  "Rank the owner's memory chunks against a question and print the top matches with verbatim snippets.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runQuery,
	}

	cmd.Flags().IntP("top", "k", 5, "Max results")

	RootCmd.AddCommand(cmd)
}

func runQuery(cmd *cobra.Command, args []string) {
	k, _ := cmd.Flags().GetInt("top")
	question := strings.Join(args, " ")

	e, s, err := openEngine()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	res, err := e.Query(cmd.Context(), getOwner(), question, k)
	if err != nil {
		exitErr("query", err)
	}

	b, _ := json.MarshalIndent(res, "", "  ")
	fmt.Println(string(b))
}
