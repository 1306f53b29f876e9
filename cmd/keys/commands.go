package keys

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yassi/dj-redis-panel/cmd/util"
	"github.com/yassi/dj-redis-panel/lib/panel"
)

var (
	searchCmd = &cobra.Command{
		Use:   "search [pattern]",
		Short: "Lists one page of keys matching a glob pattern",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := "*"
			if len(args) == 1 {
				pattern = args[0]
			}

			pos := panel.Position{
				Page:   viper.GetInt("page"),
				Cursor: viper.GetUint64("cursor"),
			}
			page, err := panelEngine.SearchKeys(
				cmd.Context(), util.InstanceName(), util.DB(),
				pattern, pos, viper.GetInt("page-size"),
			)
			if err != nil {
				return err
			}

			for _, entry := range page.Entries {
				ttl := "-"
				if entry.TTL != panel.TTLNone {
					ttl = fmt.Sprintf("%ds", entry.TTL)
				}
				fmt.Printf("%-8s%-8s%-8d%s\n", entry.Type, ttl, entry.Size, entry.Key)
			}

			if page.Total != panel.TotalUnknown {
				fmt.Printf("\n%d matching keys", page.Total)
			} else {
				fmt.Printf("\n%d keys on this page", len(page.Entries))
			}
			if page.HasMore {
				if page.Next.Cursor != 0 {
					fmt.Printf(", continue with --cursor %d", page.Next.Cursor)
				} else {
					fmt.Printf(", continue with --page %d", page.Next.Page)
				}
			}
			fmt.Println()
			return nil
		},
	}

	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Shows the metadata and value of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			detail, err := panelEngine.GetKey(cmd.Context(), util.InstanceName(), util.DB(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("key=%s, type=%s, size=%d, ttl=%d\n",
				detail.Key, detail.Type, detail.Size, detail.TTL)
			if detail.Value != nil {
				fmt.Println(detail.Value.Text)
			}
			return nil
		},
	}

	membersCmd = &cobra.Command{
		Use:   "members [key]",
		Short: "Lists one page of members of a list, hash, set or sorted set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos := panel.Position{
				Page:   viper.GetInt("page"),
				Cursor: viper.GetUint64("cursor"),
			}
			page, err := panelEngine.ScanCollection(
				cmd.Context(), util.InstanceName(), util.DB(),
				args[0], pos, viper.GetInt("page-size"),
			)
			if err != nil {
				return err
			}

			for _, member := range page.Members {
				switch page.Type {
				case "hash":
					fmt.Printf("%s = %s\n", member.Field.Text, member.Value.Text)
				case "zset":
					fmt.Printf("%g %s\n", member.Score, member.Value.Text)
				case "list":
					fmt.Printf("[%d] %s\n", member.Index, member.Value.Text)
				default:
					fmt.Println(member.Value.Text)
				}
			}

			if page.HasMore {
				if page.Next.Cursor != 0 {
					fmt.Printf("\ncontinue with --cursor %d\n", page.Next.Cursor)
				} else {
					fmt.Printf("\ncontinue with --page %d\n", page.Next.Page)
				}
			}
			return nil
		},
	}

	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Replaces the value of an existing string key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := panelEngine.UpdateValue(cmd.Context(), util.InstanceName(), util.DB(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Println("set successfully")
			return nil
		},
	}

	addCmd = &cobra.Command{
		Use:   "add [key] [value]",
		Short: "Creates a new string key, optionally with a TTL",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ttl := viper.GetInt64("ttl")
			if err := panelEngine.AddKey(cmd.Context(), util.InstanceName(), util.DB(), args[0], args[1], ttl); err != nil {
				return err
			}
			fmt.Println("added successfully")
			return nil
		},
	}

	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := panelEngine.DeleteKey(cmd.Context(), util.InstanceName(), util.DB(), args[0]); err != nil {
				return err
			}
			fmt.Println("deleted successfully")
			return nil
		},
	}

	ttlCmd = &cobra.Command{
		Use:   "ttl [key] [seconds]",
		Short: "Sets the expiry of a key in seconds, or -1 to remove it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			seconds, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("seconds must be a number: %w", err)
			}
			if err := panelEngine.UpdateTTL(cmd.Context(), util.InstanceName(), util.DB(), args[0], seconds); err != nil {
				return err
			}
			fmt.Println("ttl updated successfully")
			return nil
		},
	}

	flushCmd = &cobra.Command{
		Use:   "flush",
		Short: "Removes every key of the selected database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !viper.GetBool("force") {
				return fmt.Errorf("refusing to flush without --force")
			}
			if err := panelEngine.FlushDB(cmd.Context(), util.InstanceName(), util.DB()); err != nil {
				return err
			}
			fmt.Println("database flushed")
			return nil
		},
	}
)

func init() {
	// Pagination flags shared by search and members
	for _, cmd := range []*cobra.Command{searchCmd, membersCmd} {
		cmd.Flags().Int("page", 1, util.WrapString("Page number for page-based pagination"))
		cmd.Flags().Uint64("cursor", 0, util.WrapString("Cursor token for cursor-based pagination (0 starts a walk)"))
		cmd.Flags().Int("page-size", 25, util.WrapString("Number of entries per page"))
	}

	addCmd.Flags().Int64("ttl", 0, util.WrapString("TTL for the new key in seconds (0 for no expiry)"))
	flushCmd.Flags().Bool("force", false, util.WrapString("Confirm flushing the whole database"))
}
