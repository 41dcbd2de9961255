// ABOUTME: Link command group for managing short share links
// ABOUTME: Create, list, resolve, open, remove and summarize links

package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/harper/beacon/internal/shortlink"
	"github.com/harper/beacon/internal/ui"
	"github.com/spf13/cobra"
)

var linkCmd = &cobra.Command{
	Use:     "link",
	Aliases: []string{"links"},
	Short:   "Manage short share links",
	Long: `Manage the short links that point viewers at a session.

Examples:
  beacon link create commute
  beacon link list
  beacon link resolve aB3xY9
  beacon link open aB3xY9
  beacon link rm aB3xY9
  beacon link stats`,
}

var linkCreateCmd = &cobra.Command{
	Use:   "create <session>",
	Short: "Create another short link for a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := findSession(args[0])
		if err != nil {
			return err
		}

		code, err := links.Create(shortlink.ViewerURL(baseURL(), sess.ID), sess.ID)
		if err != nil {
			return fmt.Errorf("failed to create link: %w", err)
		}

		color.Green("✓ Created %s for %s", code, sess.Name)
		fmt.Fprintln(cmd.OutOrStdout(), shortlink.ShareURL(baseURL(), code))
		return nil
	},
}

var linkListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List short links, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, err := links.ListNewestFirst()
		if err != nil {
			return fmt.Errorf("failed to list links: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(all) == 0 {
			fmt.Fprintln(out, "No short links yet.")
			return nil
		}
		for _, l := range all {
			fmt.Fprintln(out, ui.FormatLink(l, baseURL()))
		}
		return nil
	},
}

var linkResolveCmd = &cobra.Command{
	Use:   "resolve <code>",
	Short: "Show where a short link points without counting a click",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		link, err := links.Resolve(args[0])
		if errors.Is(err, shortlink.ErrNotFound) {
			return fmt.Errorf("short link '%s' not found", args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to resolve link: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, link.OriginalURL)
		fmt.Fprintf(out, "  session: %s\n  clicks:  %d\n", link.SessionID, link.Clicks)
		return nil
	},
}

var linkOpenCmd = &cobra.Command{
	Use:   "open <code>",
	Short: "Follow a short link, counting a click",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		link, err := links.Follow(args[0])
		if errors.Is(err, shortlink.ErrNotFound) {
			return fmt.Errorf("short link '%s' not found", args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to follow link: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), link.OriginalURL)
		return nil
	},
}

var linkRemoveCmd = &cobra.Command{
	Use:     "remove <code>",
	Aliases: []string{"rm"},
	Short:   "Delete a short link",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := links.Resolve(args[0]); err != nil {
			if errors.Is(err, shortlink.ErrNotFound) {
				return fmt.Errorf("short link '%s' not found", args[0])
			}
			return err
		}

		if err := links.Delete(args[0]); err != nil {
			return fmt.Errorf("failed to delete link: %w", err)
		}

		color.Green("✓ Removed %s", args[0])
		return nil
	},
}

var linkStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Total links and clicks",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := links.Stats()
		if err != nil {
			return fmt.Errorf("failed to compute stats: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Links:  %d\nClicks: %d\n", st.Links, st.Clicks)
		return nil
	},
}

func init() {
	linkCmd.AddCommand(linkCreateCmd)
	linkCmd.AddCommand(linkListCmd)
	linkCmd.AddCommand(linkResolveCmd)
	linkCmd.AddCommand(linkOpenCmd)
	linkCmd.AddCommand(linkRemoveCmd)
	linkCmd.AddCommand(linkStatsCmd)

	rootCmd.AddCommand(linkCmd)
}
