// ABOUTME: Export and import functionality for beacon data
// ABOUTME: Supports YAML backup format and markdown export

package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harper/beacon/internal/geo"
	"github.com/harper/beacon/internal/models"
	"gopkg.in/yaml.v3"
)

// BackupVersion is the current backup format version.
const BackupVersion = "1.0"

// BackupTool identifies backups written by this program.
const BackupTool = "beacon"

// Backup represents the YAML backup format.
type Backup struct {
	Version    string                   `yaml:"version"`
	ExportedAt time.Time                `yaml:"exported_at"`
	Tool       string                   `yaml:"tool"`
	Sessions   []models.TrackingSession `yaml:"sessions"`
	Histories  []HistoryBackup          `yaml:"histories"`
	Links      []models.ShortLink       `yaml:"links"`
}

// HistoryBackup is one tracking id's sample log.
type HistoryBackup struct {
	TrackingID string                  `yaml:"tracking_id"`
	Samples    []models.LocationSample `yaml:"samples"`
}

// LinkStore is the part of the short-link directory a backup touches.
type LinkStore interface {
	List() ([]models.ShortLink, error)
	Restore(link models.ShortLink) error
}

// Stores bundles everything a backup reads or restores. Links may be nil.
type Stores struct {
	Sessions *SessionStore
	History  *HistoryStore
	Links    LinkStore
}

// ExportToYAML exports all data to YAML format.
func ExportToYAML(st Stores) ([]byte, error) {
	sessions, err := GetSessions(st.Sessions, "")
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	ids, err := st.History.IDs()
	if err != nil {
		return nil, err
	}

	backup := Backup{
		Version:    BackupVersion,
		ExportedAt: time.Now().UTC(),
		Tool:       BackupTool,
		Sessions:   make([]models.TrackingSession, len(sessions)),
		Histories:  make([]HistoryBackup, 0, len(ids)),
		Links:      []models.ShortLink{},
	}
	for i, s := range sessions {
		backup.Sessions[i] = *s
	}

	for _, id := range ids {
		samples, err := st.History.Load(id)
		if err != nil {
			return nil, fmt.Errorf("load history %s: %w", id, err)
		}
		backup.Histories = append(backup.Histories, HistoryBackup{TrackingID: id, Samples: samples})
	}

	if st.Links != nil {
		links, err := st.Links.List()
		if err != nil {
			return nil, fmt.Errorf("list links: %w", err)
		}
		backup.Links = links
	}

	return yaml.Marshal(backup)
}

// ImportFromYAML imports data from YAML format.
// This is a restore operation: records with the same id or code are
// overwritten and click counts are carried over.
func ImportFromYAML(st Stores, data []byte) error {
	var backup Backup
	if err := yaml.Unmarshal(data, &backup); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}

	if backup.Version != BackupVersion {
		return fmt.Errorf("unsupported backup version: %s (expected %s)", backup.Version, BackupVersion)
	}

	if backup.Tool != BackupTool {
		return fmt.Errorf("wrong tool: %s (expected %s)", backup.Tool, BackupTool)
	}

	for i := range backup.Sessions {
		sess := &backup.Sessions[i]
		if sess.LocationHistory == nil {
			sess.LocationHistory = []models.LocationSample{}
		}
		for _, s := range sess.LocationHistory {
			if err := s.Validate(); err != nil {
				return fmt.Errorf("session %s: %w", sess.ID, err)
			}
		}
		if err := st.Sessions.Upsert(sess); err != nil {
			return fmt.Errorf("restore session %s: %w", sess.Name, err)
		}
	}

	for _, h := range backup.Histories {
		if h.TrackingID == "" {
			return fmt.Errorf("history without tracking id")
		}
		if err := st.History.Save(h.TrackingID, h.Samples); err != nil {
			return fmt.Errorf("restore history %s: %w", h.TrackingID, err)
		}
	}

	if len(backup.Links) > 0 && st.Links == nil {
		return fmt.Errorf("backup has %d links but no link store was given", len(backup.Links))
	}
	for _, link := range backup.Links {
		if err := st.Links.Restore(link); err != nil {
			return fmt.Errorf("restore link %s: %w", link.ShortCode, err)
		}
	}

	return nil
}

// ExportToMarkdown exports sessions to markdown format.
// If sessionID is empty, exports all sessions.
func ExportToMarkdown(sessions *SessionStore, sessionID string) ([]byte, error) {
	data, err := GetSessions(sessions, sessionID)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder

	now := time.Now().UTC()
	sb.WriteString(fmt.Sprintf("# Beacon Export - %s\n\n", now.Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", now.Format(time.RFC3339)))

	if len(data) == 0 {
		sb.WriteString("No sessions tracked.\n")
		return []byte(sb.String()), nil
	}

	for _, sess := range data {
		sb.WriteString(fmt.Sprintf("## %s\n\n", sess.Name))

		if len(sess.LocationHistory) == 0 {
			sb.WriteString("No locations recorded.\n\n")
			continue
		}

		sb.WriteString(fmt.Sprintf("Distance: %s\n\n", geo.FormatDistance(geo.CumulativeDistance(sess.LocationHistory))))
		sb.WriteString("| Date | Coordinates | Accuracy |\n")
		sb.WriteString("|------|-------------|----------|\n")

		for _, s := range sess.LocationHistory {
			date := s.Time().UTC().Format("2006-01-02 15:04:05")
			coords := fmt.Sprintf("(%.4f, %.4f)", s.Latitude, s.Longitude)
			sb.WriteString(fmt.Sprintf("| %s | %s | ±%.0f m |\n", date, coords, s.Accuracy))
		}

		sb.WriteString("\n")
	}

	return []byte(sb.String()), nil
}

// GetSessions loads full session records. If sessionID is empty, returns
// every session in the directory, skipping entries whose record is gone.
func GetSessions(sessions *SessionStore, sessionID string) ([]*models.TrackingSession, error) {
	if sessionID != "" {
		sess, err := sessions.Load(sessionID)
		if err != nil {
			return nil, err
		}
		return []*models.TrackingSession{sess}, nil
	}

	dir, err := sessions.List()
	if err != nil {
		return nil, err
	}

	result := make([]*models.TrackingSession, 0, len(dir))
	for _, entry := range dir {
		sess, err := sessions.Load(entry.ID)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load session %s: %w", entry.Name, err)
		}
		result = append(result, sess)
	}
	return result, nil
}
