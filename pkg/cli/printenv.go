package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sungazer-io/swarm-cli/pkg/environ"
)

func newPrintenvCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "printenv",
		Short: "Print the process environment, sorted",
		Args:  cobra.NoArgs,
		RunE:  printenv,
	}
	return cmd
}

func printenv(cmd *cobra.Command, args []string) error {
	printEnviron(cmd, environ.FromOS())
	return nil
}

func printEnviron(cmd *cobra.Command, env environ.Environ) {
	out := cmd.OutOrStdout()
	for _, line := range env.Slice() {
		fmt.Fprintln(out, line)
	}
}
