package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/feichai0017/pdf-processor/internal/agent"
)

func newBackendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List the available extraction backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, mode := range agent.Modes() {
				fmt.Fprintln(cmd.OutOrStdout(), mode)
			}
			return nil
		},
	}
}
