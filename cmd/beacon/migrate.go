// ABOUTME: Migration command for copying beacon data between store backends
// ABOUTME: Copies every key from the configured store into the target with safety checks

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/fatih/color"
	"github.com/harper/beacon/internal/config"
	"github.com/harper/beacon/internal/kv"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate data between store backends",
	Long: `Copy all beacon data from the currently configured backend to a different backend.

Every session, history and short link key is copied as-is. Does NOT update
the config file; verify the migration was successful then update
config.yaml manually.

Examples:
  beacon migrate --to sqlite
  beacon migrate --to badger --data-dir ~/beacon-badger
  beacon migrate --to charm`,
	RunE: runMigrate,
}

var (
	migrateTo      string
	migrateDataDir string
	migrateForce   bool
)

func init() {
	migrateCmd.Flags().StringVar(&migrateTo, "to", "", "target backend (badger, sqlite, charm)")
	migrateCmd.Flags().StringVar(&migrateDataDir, "data-dir", "", "target data directory (defaults to current config data_dir)")
	migrateCmd.Flags().BoolVar(&migrateForce, "force", false, "allow writing into a non-empty target directory")
	_ = migrateCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	sourceBackend := cfg.GetBackend()
	targetBackend := migrateTo

	if !slices.Contains(kv.Backends(), targetBackend) || targetBackend == kv.BackendMemory {
		return fmt.Errorf("invalid target backend %q: must be badger, sqlite or charm", targetBackend)
	}

	targetDataDir := cfg.GetDataDir()
	if migrateDataDir != "" {
		targetDataDir = config.ExpandPath(migrateDataDir)
	}
	if targetBackend == sourceBackend && (targetBackend == kv.BackendCharm || targetDataDir == cfg.GetDataDir()) {
		return fmt.Errorf("target backend %q is the same as the current backend", targetBackend)
	}

	if targetBackend != kv.BackendCharm {
		nonEmpty, err := dirNonEmpty(targetDataDir, targetBackend)
		if err != nil {
			return fmt.Errorf("check target directory: %w", err)
		}
		if nonEmpty && !migrateForce {
			return fmt.Errorf("target %s store in %q is not empty; use --force to merge into it", targetBackend, targetDataDir)
		}
	}

	target := *cfg
	target.Backend = targetBackend
	target.DataDir = targetDataDir
	dst, err := target.OpenStore()
	if err != nil {
		return fmt.Errorf("open target store (%s): %w", targetBackend, err)
	}
	defer func() {
		if cerr := dst.Close(); cerr != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: closing target store: %v\n", cerr)
		}
	}()

	out := cmd.OutOrStdout()
	color.Yellow("Migrating beacon data:")
	fmt.Fprintf(out, "  Source:  %s (%s)\n", sourceBackend, cfg.GetDataDir())
	fmt.Fprintf(out, "  Target:  %s (%s)\n", targetBackend, targetDataDir)
	fmt.Fprintln(out)

	copied, err := kv.Copy(dst, store, "")
	if err != nil {
		return fmt.Errorf("migration failed after %d keys: %w", copied, err)
	}
	logger.Info("migration complete", "from", sourceBackend, "to", targetBackend, "keys", copied)

	color.Green("Migration complete!")
	fmt.Fprintf(out, "  Keys: %d\n", copied)
	fmt.Fprintln(out)
	color.Yellow("Note: config.yaml was NOT updated. To switch to the new backend, edit:")
	fmt.Fprintf(out, "  %s\n", config.GetConfigPath())
	fmt.Fprintf(out, "  Set backend: %s", targetBackend)
	if migrateDataDir != "" {
		fmt.Fprintf(out, " and data_dir: %s", migrateDataDir)
	}
	fmt.Fprintln(out)
	return nil
}

// dirNonEmpty reports whether the backend's files under dataDir already
// hold anything.
func dirNonEmpty(dataDir, backend string) (bool, error) {
	path := filepath.Join(dataDir, "badger")
	if backend == kv.BackendSQLite {
		path = filepath.Join(dataDir, "beacon.db")
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !info.IsDir() {
		return info.Size() > 0, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return false, err
	}
	return len(entries) > 0, nil
}
