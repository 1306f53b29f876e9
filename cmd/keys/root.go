package keys

import (
	"github.com/spf13/cobra"

	"github.com/yassi/dj-redis-panel/cmd/util"
	"github.com/yassi/dj-redis-panel/lib/panel/engine"
)

var (
	panelEngine *engine.Engine

	// KeyCommands represents the key browsing and mutation command group
	KeyCommands = &cobra.Command{
		Use:               "keys",
		Short:             "Browse and mutate the keys of an instance",
		PersistentPreRunE: setupEngine,
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if panelEngine != nil {
				panelEngine.Close()
			}
		},
	}
)

func init() {
	// Add subcommands
	KeyCommands.AddCommand(searchCmd)
	KeyCommands.AddCommand(getCmd)
	KeyCommands.AddCommand(membersCmd)
	KeyCommands.AddCommand(setCmd)
	KeyCommands.AddCommand(addCmd)
	KeyCommands.AddCommand(delCmd)
	KeyCommands.AddCommand(ttlCmd)
	KeyCommands.AddCommand(flushCmd)
	KeyCommands.AddCommand(perfCmd)
}

// setupEngine builds the engine from the bound configuration
func setupEngine(cmd *cobra.Command, _ []string) error {
	e, err := util.GetEngine(cmd)
	if err != nil {
		return err
	}
	panelEngine = e
	return nil
}
