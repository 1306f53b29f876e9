package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yassi/dj-redis-panel/cmd/keys"
	"github.com/yassi/dj-redis-panel/cmd/seed"
	"github.com/yassi/dj-redis-panel/cmd/util"
)

const (
	Version = "1.2.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "redis-panel",
		Short: "Redis key browser and editor",
		Long: fmt.Sprintf(`redis-panel (v%s)

A browser and editor for Redis keyspaces: paginated key search,
binary-safe value editing, TTL management and per-instance statistics,
against one or many configured instances.`, Version),
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of redis-panel",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("redis-panel v%s\n", Version)
		},
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add shared connection flags
	util.SetupConnectionFlags(RootCmd)

	// Add Commands
	RootCmd.AddCommand(keys.KeyCommands)
	RootCmd.AddCommand(seed.SeedCmd)
	RootCmd.AddCommand(instancesCmd)
	RootCmd.AddCommand(overviewCmd)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
