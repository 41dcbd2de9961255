// ABOUTME: Tests for the install-skill command
// ABOUTME: Verifies skill installation, directory creation, and file content

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSkillInstall_Success(t *testing.T) {
	tmpDir := t.TempDir()

	if err := installSkillTo(tmpDir); err != nil {
		t.Fatalf("installSkillTo failed: %v", err)
	}

	if _, err := os.Stat(skillPathIn(tmpDir)); os.IsNotExist(err) {
		t.Error("skill file was not created")
	}
}

func TestSkillInstall_DirectoryCreation(t *testing.T) {
	tmpDir := t.TempDir()

	if err := installSkillTo(tmpDir); err != nil {
		t.Fatalf("installSkillTo failed: %v", err)
	}

	expectedDirs := []string{
		filepath.Join(tmpDir, ".claude"),
		filepath.Join(tmpDir, ".claude", "skills"),
		filepath.Join(tmpDir, ".claude", "skills", "beacon"),
	}

	for _, dir := range expectedDirs {
		info, err := os.Stat(dir)
		if err != nil {
			t.Errorf("directory %s: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("expected directory, got file: %s", dir)
		}
	}
}

func TestSkillInstall_FileContent(t *testing.T) {
	tmpDir := t.TempDir()

	if err := installSkillTo(tmpDir); err != nil {
		t.Fatalf("installSkillTo failed: %v", err)
	}

	content, err := os.ReadFile(skillPathIn(tmpDir))
	if err != nil {
		t.Fatalf("failed to read skill file: %v", err)
	}
	contentStr := string(content)

	expectedStrings := []string{
		"name: beacon",
		"# beacon - Live Location Sharing",
		"mcp__beacon__record_location",
		"mcp__beacon__get_session",
		"mcp__beacon__list_sessions",
		"mcp__beacon__create_link",
		"mcp__beacon__resolve_link",
		"mcp__beacon__list_links",
	}

	for _, expected := range expectedStrings {
		if !strings.Contains(contentStr, expected) {
			t.Errorf("skill file missing expected content: %q", expected)
		}
	}
}

func TestSkillInstall_Overwrite(t *testing.T) {
	tmpDir := t.TempDir()

	if err := installSkillTo(tmpDir); err != nil {
		t.Fatalf("first installSkillTo failed: %v", err)
	}

	skillPath := skillPathIn(tmpDir)
	if err := os.WriteFile(skillPath, []byte("this is test content that should be overwritten"), 0644); err != nil {
		t.Fatalf("failed to write test content: %v", err)
	}

	if err := installSkillTo(tmpDir); err != nil {
		t.Fatalf("second installSkillTo failed: %v", err)
	}

	finalContent, err := os.ReadFile(skillPath)
	if err != nil {
		t.Fatalf("failed to read final file: %v", err)
	}
	if strings.Contains(string(finalContent), "this is test content") {
		t.Error("file was not overwritten - still contains test content")
	}
	if !strings.Contains(string(finalContent), "name: beacon") {
		t.Error("file was not overwritten with correct skill content")
	}
}

func TestSkillInstall_FilePermissions(t *testing.T) {
	tmpDir := t.TempDir()

	if err := installSkillTo(tmpDir); err != nil {
		t.Fatalf("installSkillTo failed: %v", err)
	}

	info, err := os.Stat(skillPathIn(tmpDir))
	if err != nil {
		t.Fatalf("failed to stat skill file: %v", err)
	}

	// umask can only clear bits
	if perm := info.Mode().Perm(); perm&0600 != 0600 || perm&^0644 != 0 {
		t.Errorf("unexpected file permissions: %o", perm)
	}
}

func TestSkillInstall_EmbeddedFileExists(t *testing.T) {
	content, err := skillFS.ReadFile("skill/SKILL.md")
	if err != nil {
		t.Fatalf("failed to read embedded skill file: %v", err)
	}
	if len(content) == 0 {
		t.Error("embedded skill file is empty")
	}
}

func TestSkillSkipConfirmFlag(t *testing.T) {
	flag := installSkillCmd.Flags().Lookup("yes")
	if flag == nil {
		t.Fatal("--yes flag not found on install-skill command")
	}
	if flag.Shorthand != "y" {
		t.Errorf("--yes flag shorthand: got %q, want %q", flag.Shorthand, "y")
	}
	if flag.DefValue != "false" {
		t.Errorf("--yes flag default value: got %q, want %q", flag.DefValue, "false")
	}
}

func TestInstallSkillCmd_Metadata(t *testing.T) {
	if installSkillCmd.Use != "install-skill" {
		t.Errorf("command Use: got %q, want %q", installSkillCmd.Use, "install-skill")
	}
	if !strings.Contains(installSkillCmd.Long, "~/.claude/skills/beacon/") {
		t.Error("command Long description should mention installation path")
	}
}
