// ABOUTME: Sync subcommand for the charm backend
// ABOUTME: Links devices, syncs on demand, and repairs, resets or wipes the beacon database

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/charm/client"
	charmkv "github.com/charmbracelet/charm/kv"
	"github.com/fatih/color"
	"github.com/harper/beacon/internal/kv"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Manage cloud sync for the charm backend",
	Long: `Sync sessions, history and share links through Charm Cloud.
Everything except status, link and unlink needs backend: charm.

Examples:
  beacon sync status
  beacon sync link
  beacon sync now
  beacon sync repair --force`,
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the charm host, database and linked account",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		charmCfg := kv.DefaultCharmConfig()
		if cfg.CharmHost != "" {
			charmCfg.CharmHost = cfg.CharmHost
		}

		fmt.Fprintf(out, "Backend:    %s\n", cfg.GetBackend())
		fmt.Fprintf(out, "Charm Host: %s\n", charmCfg.CharmHost)
		fmt.Fprintf(out, "Database:   %s\n", kv.CharmDBName)

		user, err := charmUser()
		if err != nil {
			color.Yellow("\nNot linked. Run 'beacon sync link' to connect this device.")
			return nil
		}
		fmt.Fprintf(out, "\nUser ID: %s\n", user)
		if cfg.GetBackend() != kv.BackendCharm {
			color.Yellow("Linked, but sessions are stored in %s and will not sync.", cfg.GetBackend())
			return nil
		}
		color.Green("Linked and syncing")
		return nil
	},
}

var syncLinkCmd = &cobra.Command{
	Use:   "link",
	Short: "Link this device to your Charm account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := runCharmCLI("link"); err != nil {
			return fmt.Errorf("%w\ninstall the charm CLI with: go install github.com/charmbracelet/charm@latest", err)
		}
		color.Green("✓ Device linked; sessions will sync on the next write")
		return nil
	},
}

var syncUnlinkCmd = &cobra.Command{
	Use:   "unlink",
	Short: "Unlink this device; local sessions stay",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := runCharmCLI("unlink"); err != nil {
			return err
		}
		color.Green("✓ Device unlinked")
		return nil
	},
}

var syncNowCmd = &cobra.Command{
	Use:   "now",
	Short: "Push and pull pending changes immediately",
	RunE: func(cmd *cobra.Command, args []string) error {
		cs, err := charmStore()
		if err != nil {
			return err
		}
		if err := cs.Sync(); err != nil {
			return fmt.Errorf("failed to sync: %w", err)
		}
		color.Green("✓ Synced")
		return nil
	},
}

var repairForce bool

var syncRepairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Check and repair the local beacon database",
	Long: `Checkpoint, integrity-check and vacuum the local beacon database.
With --force a failed integrity check falls back to reindexing and,
failing that, to pulling the database again from Charm Cloud.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := charmStore(); err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		result, err := charmkv.Repair(kv.CharmDBName, repairForce)
		if err != nil {
			if !repairForce {
				fmt.Fprintln(out, "Retry with 'beacon sync repair --force' to attempt recovery.")
			}
			return fmt.Errorf("repair failed: %w", err)
		}

		printRepair(out, repairSummary{
			checkpointed:   result.WalCheckpointed,
			shmRemoved:     result.ShmRemoved,
			integrityOK:    result.IntegrityOK,
			vacuumed:       result.Vacuumed,
			reindexed:      result.RecoveryAttempted,
			resetFromCloud: result.ResetFromCloud,
			warning:        result.Error,
		})
		return nil
	},
}

var resetYes bool

var syncResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Replace the local beacon database with the cloud copy",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := charmStore(); err != nil {
			return err
		}
		if !confirm(cmd, resetYes, "Discard unsynced sessions and pull the cloud copy?") {
			return nil
		}
		if err := charmkv.Reset(kv.CharmDBName); err != nil {
			return fmt.Errorf("failed to reset: %w", err)
		}
		color.Green("✓ Local database replaced from Charm Cloud")
		return nil
	},
}

var syncWipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete every session and share link, locally and in the cloud",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := charmStore(); err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		summaries, err := sessions.List()
		if err != nil {
			return err
		}
		all, err := links.List()
		if err != nil {
			return err
		}
		color.Red("%s", wipeWarning(len(summaries), len(all)))
		fmt.Fprint(out, "Type 'wipe' to confirm: ")
		answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if strings.TrimSpace(answer) != "wipe" {
			fmt.Fprintln(out, "Canceled.")
			return nil
		}

		result, err := charmkv.Wipe(kv.CharmDBName)
		if err != nil {
			return fmt.Errorf("failed to wipe: %w", err)
		}
		fmt.Fprintf(out, "Removed %d local file(s) and %d cloud backup(s)\n",
			result.LocalFilesDeleted, result.CloudBackupsDeleted)
		if result.Error != nil {
			color.Yellow("⚠ %v", result.Error)
		}
		return nil
	},
}

// charmStore returns the open store when it is the charm backend.
func charmStore() (*kv.Charm, error) {
	cs, ok := store.(*kv.Charm)
	if !ok {
		return nil, fmt.Errorf("sync requires the charm backend (current: %s)", cfg.GetBackend())
	}
	return cs, nil
}

func charmUser() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", err
	}
	return cc.ID()
}

// runCharmCLI hands the terminal to the charm binary.
func runCharmCLI(args ...string) error {
	c := exec.Command("charm", args...)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("charm %s: %w", strings.Join(args, " "), err)
	}
	return nil
}

type repairSummary struct {
	checkpointed   bool
	shmRemoved     bool
	integrityOK    bool
	vacuumed       bool
	reindexed      bool
	resetFromCloud bool
	warning        error
}

func printRepair(out io.Writer, r repairSummary) {
	steps := []struct {
		done bool
		text string
	}{
		{r.checkpointed, "write-ahead log checkpointed"},
		{r.shmRemoved, "stale shared-memory file removed"},
		{r.vacuumed, "database vacuumed"},
		{r.reindexed, "indexes rebuilt"},
		{r.resetFromCloud, "database pulled again from Charm Cloud"},
	}
	for _, s := range steps {
		if s.done {
			fmt.Fprintf(out, "  ✓ %s\n", s.text)
		}
	}
	if r.integrityOK {
		fmt.Fprintln(out, "  ✓ integrity check passed")
	} else {
		fmt.Fprintln(out, "  ✗ integrity check failed; sessions may be incomplete")
	}
	if r.warning != nil {
		fmt.Fprintf(out, "  ⚠ %v\n", r.warning)
	}
}

func wipeWarning(sessionCount, linkCount int) string {
	return fmt.Sprintf("This deletes %d session(s) and %d share link(s) from every linked device. It cannot be undone.",
		sessionCount, linkCount)
}

func init() {
	syncRepairCmd.Flags().BoolVarP(&repairForce, "force", "f", false, "Attempt recovery if the integrity check fails")
	syncResetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "Skip confirmation")

	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncLinkCmd)
	syncCmd.AddCommand(syncUnlinkCmd)
	syncCmd.AddCommand(syncNowCmd)
	syncCmd.AddCommand(syncRepairCmd)
	syncCmd.AddCommand(syncResetCmd)
	syncCmd.AddCommand(syncWipeCmd)

	rootCmd.AddCommand(syncCmd)
}
