package root

import (
	"github.com/spf13/cobra"
)

// RootCmd is the api-bootstrap CLI. Subcommands register themselves in init.
var RootCmd = &cobra.Command{
	Use:           "api-bootstrap",
	Short:         "Probe an api-bootstrap server",
	Long:          "Command line tools for checking that an api-bootstrap API is alive.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func GetRoot() *cobra.Command {
	return RootCmd
}
