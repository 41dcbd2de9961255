// ABOUTME: Shared helpers for commands that take a session reference
// ABOUTME: Resolves ids, id prefixes and names, and handles confirmation prompts

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/harper/beacon/internal/models"
	"github.com/harper/beacon/internal/storage"
	"github.com/spf13/cobra"
)

// findSession resolves ref as a full id, a unique id prefix, or an exact
// session name, in that order.
func findSession(ref string) (*models.TrackingSession, error) {
	if ref == "" {
		return nil, fmt.Errorf("session reference is required")
	}
	sess, err := sessions.Load(ref)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	dir, err := sessions.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var matches []models.SessionSummary
	for _, entry := range dir {
		if strings.HasPrefix(entry.ID, ref) {
			matches = append(matches, entry)
		}
	}
	if len(matches) == 0 {
		for _, entry := range dir {
			if entry.Name == ref {
				matches = append(matches, entry)
			}
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("session '%s' not found", ref)
	case 1:
		return sessions.Load(matches[0].ID)
	default:
		return nil, fmt.Errorf("'%s' matches %d sessions; use a longer id", ref, len(matches))
	}
}

// confirm asks a y/N question unless skip is set.
func confirm(cmd *cobra.Command, skip bool, prompt string) bool {
	if skip {
		return true
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))
	if response != "y" && response != "yes" {
		fmt.Fprintln(cmd.OutOrStdout(), "Canceled.")
		return false
	}
	return true
}

// writeOutput writes data to path, or to out when path is empty.
func writeOutput(out io.Writer, path string, data []byte, what string) error {
	if path == "" {
		_, err := out.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil { //nolint:gosec // 0644 is intentional for data export files
		return fmt.Errorf("failed to write file: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s to %s\n", what, path)
	return nil
}
