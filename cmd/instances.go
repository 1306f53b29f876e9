package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yassi/dj-redis-panel/cmd/util"
)

var (
	instancesCmd = &cobra.Command{
		Use:   "instances",
		Short: "List the configured instances and their connection status",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := util.GetEngine(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			for _, status := range e.Instances(cmd.Context()) {
				state := "ok"
				if !status.Connected {
					state = fmt.Sprintf("unreachable (%s)", status.Error)
				}
				if status.Description != "" {
					fmt.Printf("%-20s%-12s%s\n", status.Name, state, status.Description)
				} else {
					fmt.Printf("%-20s%s\n", status.Name, state)
				}
			}
			return nil
		},
	}

	overviewCmd = &cobra.Command{
		Use:   "overview",
		Short: "Show server info and per-database statistics for one instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := util.GetEngine(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			overview, err := e.Overview(cmd.Context(), util.InstanceName())
			if err != nil {
				return err
			}

			fmt.Printf("Instance: %s\n", overview.Name)
			if overview.Version != "" {
				fmt.Printf("Version:  %s\n", overview.Version)
			}
			if overview.MemoryUsed != "" {
				fmt.Printf("Memory:   %s (peak %s)\n", overview.MemoryUsed, overview.MemoryPeak)
			}
			if overview.ConnectedClients > 0 {
				fmt.Printf("Clients:  %d\n", overview.ConnectedClients)
			}
			if overview.UptimeSeconds > 0 {
				fmt.Printf("Uptime:   %ds\n", overview.UptimeSeconds)
			}

			fmt.Println()
			fmt.Printf("%-5s%-10s%-12s%-14s%s\n", "DB", "KEYS", "EXPIRING~", "BYTES~", "SAMPLED")
			for _, db := range overview.Databases {
				fmt.Printf("%-5d%-10d%-12d%-14d%d\n",
					db.DB, db.Keys, db.ExpiringEst, db.SpaceBytesEst, db.SampledKeys)
			}
			return nil
		},
	}
)
