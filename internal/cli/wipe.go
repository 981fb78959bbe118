package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Delete every memory for the owner",
		Long:  "Delete all memories and chunks for the owner and reset their stats. Irreversible; requires --yes.",
		Run:   runWipe,
	}

	cmd.Flags().Bool("yes", false, "Confirm the wipe")

	RootCmd.AddCommand(cmd)
}

func runWipe(cmd *cobra.Command, args []string) {
	yes, _ := cmd.Flags().GetBool("yes")
	if !yes {
		exitErr("wipe", fmt.Errorf("refusing to wipe without --yes"))
	}

	e, s, err := openEngine()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := e.DeleteAll(cmd.Context(), getOwner()); err != nil {
		exitErr("wipe", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), `{"ok":true}`)
}
