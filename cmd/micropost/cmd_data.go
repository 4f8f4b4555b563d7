package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/DevRickLin/micropost-notify/internal/conf"
	"github.com/DevRickLin/micropost-notify/internal/service"
)

var feedLimit int

// seedCmd loads demo fixtures
var seedCmd = &cobra.Command{
	Use:   "seed [fixtures.yaml]",
	Short: "Load users, posts and presets from a YAML fixtures file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fixtures, err := conf.LoadFixtures(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := service.NewSeeder(a.uc, logger).Apply(cmd.Context(), fixtures)
		if err != nil {
			return err
		}

		names := make([]string, 0, len(result.UserIDs))
		for name := range result.UserIDs {
			names = append(names, name)
		}
		sort.Strings(names)
		out := cmd.OutOrStdout()
		for _, name := range names {
			fmt.Fprintf(out, "%s\t%s\n", result.UserIDs[name], name)
		}
		return nil
	},
}

// feedCmd prints a user's notification feed as JSON
var feedCmd = &cobra.Command{
	Use:   "feed [user-id]",
	Short: "Print a user's notification feed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		feed, err := a.uc.Notification.Feed(cmd.Context(), args[0], feedLimit)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(feed)
	},
}

// migrateCmd creates the schema and exits
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		a.Close()
		fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
		return nil
	},
}

func init() {
	feedCmd.Flags().IntVarP(&feedLimit, "limit", "n", 0, "maximum number of entries (0 = all)")
}
