package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the owner's memories as JSON",
		Long:  "Export the owner's memories as JSON in creation order. Vectors are not exported; import re-derives them.",
		Run:   runExport,
	}

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	e, s, err := openEngine()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	memories, err := e.Export(cmd.Context(), getOwner())
	if err != nil {
		exitErr("export", err)
	}

	b, _ := json.MarshalIndent(memories, "", "  ")
	fmt.Println(string(b))
}
