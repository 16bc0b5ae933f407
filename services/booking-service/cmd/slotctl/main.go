// Command slotctl previews offerable slots from a schedule file, drives the
// public booking endpoint and checks gRPC health of a running booking service.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "slotctl",
		Short:         "Slot preview and booking helper for the booking service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newPreviewCmd(), newBookCmd(), newHealthCmd())
	return root
}
