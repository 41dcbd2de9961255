// ABOUTME: Install Claude Code skill for beacon
// ABOUTME: Embeds and installs the skill definition to ~/.claude/skills/

package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

//go:embed skill/SKILL.md
var skillFS embed.FS

var skillSkipConfirm bool

var installSkillCmd = &cobra.Command{
	Use:   "install-skill",
	Short: "Install Claude Code skill",
	Long: `Install the beacon skill for Claude Code.

This copies the skill definition to ~/.claude/skills/beacon/
so Claude Code can use beacon commands contextually.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		out := cmd.OutOrStdout()
		skillPath := skillPathIn(home)
		fmt.Fprintln(out, "This will install the beacon skill, enabling Claude Code to:")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "  • Record locations into sessions")
		fmt.Fprintln(out, "  • Create and inspect short share links")
		fmt.Fprintln(out, "  • Export tracks to GeoJSON")
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Destination:\n  %s\n\n", skillPath)

		if _, err := os.Stat(skillPath); err == nil {
			fmt.Fprintln(out, "Note: A skill file already exists and will be overwritten.")
			fmt.Fprintln(out)
		}

		if !confirm(cmd, skillSkipConfirm, "Install the beacon skill?") {
			return nil
		}

		if err := installSkillTo(home); err != nil {
			return err
		}

		color.Green("✓ Installed beacon skill successfully!")
		fmt.Fprintln(out, "Try asking Claude: \"Share my location\" or \"How many people opened my link?\"")
		return nil
	},
}

func init() {
	installSkillCmd.Flags().BoolVarP(&skillSkipConfirm, "yes", "y", false, "Skip confirmation prompt")
	rootCmd.AddCommand(installSkillCmd)
}

func skillPathIn(home string) string {
	return filepath.Join(home, ".claude", "skills", "beacon", "SKILL.md")
}

// installSkillTo writes the embedded skill under home, replacing any
// existing copy.
func installSkillTo(home string) error {
	skillPath := skillPathIn(home)

	content, err := skillFS.ReadFile("skill/SKILL.md")
	if err != nil {
		return fmt.Errorf("failed to read embedded skill: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(skillPath), 0755); err != nil { // #nosec G301 - skill dir needs to be readable
		return fmt.Errorf("failed to create skill directory: %w", err)
	}

	if err := os.WriteFile(skillPath, content, 0644); err != nil { // #nosec G306 - skill file needs to be readable
		return fmt.Errorf("failed to write skill file: %w", err)
	}
	return nil
}
