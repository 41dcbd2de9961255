// ABOUTME: MCP tool definitions and handlers
// ABOUTME: Lets agents record locations, inspect sessions and manage short links

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harper/beacon/internal/geo"
	"github.com/harper/beacon/internal/models"
	"github.com/harper/beacon/internal/shortlink"
	"github.com/harper/beacon/internal/storage"
	"github.com/harper/beacon/internal/tracker"
	"github.com/harper/beacon/internal/viewer"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerTools() {
	s.registerRecordLocationTool()
	s.registerGetSessionTool()
	s.registerListSessionsTool()
	s.registerClearHistoryTool()
	s.registerDeleteSessionTool()
	s.registerCreateLinkTool()
	s.registerResolveLinkTool()
	s.registerListLinksTool()
	s.registerDeleteLinkTool()
}

func textResult(v interface{}) *mcp.CallToolResult {
	jsonBytes, _ := json.MarshalIndent(v, "", "  ") //nolint:errchkjson // output is always serializable
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(jsonBytes)}},
	}
}

func (s *Server) loadSession(id string) (*models.TrackingSession, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("session_id is required")
	}
	sess, err := s.sessions.Load(id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("session '%s' not found", id)
	}
	return sess, err
}

// RecordLocationInput defines input for record_location tool.
type RecordLocationInput struct {
	SessionID string   `json:"session_id,omitempty"`
	Name      string   `json:"name,omitempty"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  float64  `json:"accuracy,omitempty"`
	Speed     *float64 `json:"speed,omitempty"`
	Heading   *float64 `json:"heading,omitempty"`
	At        *string  `json:"at,omitempty"`
}

// SampleOutput defines output for record_location tool.
type SampleOutput struct {
	SessionID  string    `json:"session_id"`
	Name       string    `json:"name"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Accuracy   float64   `json:"accuracy"`
	RecordedAt time.Time `json:"recorded_at"`
	Points     int       `json:"points"`
	Distance   string    `json:"distance"`
}

func (s *Server) registerRecordLocationTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "record_location",
		Description: "Append a location reading to a tracking session. Omit session_id to start a new session.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Existing session to append to",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Name for a new session (e.g., 'commute')",
				},
				"latitude": map[string]interface{}{
					"type":        "number",
					"description": "Latitude coordinate (-90 to 90)",
				},
				"longitude": map[string]interface{}{
					"type":        "number",
					"description": "Longitude coordinate (-180 to 180)",
				},
				"accuracy": map[string]interface{}{
					"type":        "number",
					"description": "Accuracy radius in meters",
				},
				"speed": map[string]interface{}{
					"type":        "number",
					"description": "Optional speed in meters per second",
				},
				"heading": map[string]interface{}{
					"type":        "number",
					"description": "Optional heading in degrees (0 to 360)",
				},
				"at": map[string]interface{}{
					"type":        "string",
					"description": "Optional recorded time in RFC3339 format",
				},
			},
			"required": []string{"latitude", "longitude"},
		},
	}, s.handleRecordLocation)
}

func (s *Server) handleRecordLocation(_ context.Context, req *mcp.CallToolRequest, input RecordLocationInput) (*mcp.CallToolResult, SampleOutput, error) {
	at := s.now()
	if input.At != nil {
		parsed, err := time.Parse(time.RFC3339, *input.At)
		if err != nil {
			return nil, SampleOutput{}, fmt.Errorf("invalid timestamp: %w", err)
		}
		at = parsed
	}

	sample := models.NewSampleAt(input.Latitude, input.Longitude, input.Accuracy, at).
		WithMotion(input.Speed, input.Heading)
	if err := sample.Validate(); err != nil {
		return nil, SampleOutput{}, err
	}

	deps := tracker.Deps{Sessions: s.sessions, History: s.history, BaseURL: s.baseURL, Logger: s.logger}
	var ctrl *tracker.Controller
	if input.SessionID != "" {
		if _, err := s.loadSession(input.SessionID); err != nil {
			return nil, SampleOutput{}, err
		}
		var err error
		if ctrl, err = tracker.Resume(input.SessionID, deps); err != nil {
			return nil, SampleOutput{}, err
		}
	} else {
		name := input.Name
		if name == "" {
			name = models.DefaultSessionName(at)
		}
		if err := models.ValidateName(name); err != nil {
			return nil, SampleOutput{}, err
		}
		ctrl = tracker.New(models.NewSession(strings.TrimSpace(name)), deps)
	}

	if err := ctrl.Record(sample); err != nil {
		return nil, SampleOutput{}, fmt.Errorf("failed to record location: %w", err)
	}
	sess := ctrl.Session()
	s.logger.Debug("location recorded", "session_id", sess.ID, "points", len(sess.LocationHistory))

	output := SampleOutput{
		SessionID:  sess.ID,
		Name:       sess.Name,
		Latitude:   sample.Latitude,
		Longitude:  sample.Longitude,
		Accuracy:   sample.Accuracy,
		RecordedAt: sample.Time().UTC(),
		Points:     len(sess.LocationHistory),
		Distance:   geo.FormatDistance(geo.CumulativeDistance(sess.LocationHistory)),
	}
	return textResult(output), output, nil
}

// GetSessionInput defines input for get_session tool.
type GetSessionInput struct {
	SessionID string `json:"session_id"`
	Recent    int    `json:"recent,omitempty"`
}

func (s *Server) registerGetSessionTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_session",
		Description: "Get a session with its current location, recent history and distance travelled.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the session",
				},
				"recent": map[string]interface{}{
					"type":        "integer",
					"description": "How many trailing samples to list (default 10, negative lists all)",
				},
			},
			"required": []string{"session_id"},
		},
	}, s.handleGetSession)
}

func (s *Server) handleGetSession(_ context.Context, req *mcp.CallToolRequest, input GetSessionInput) (*mcp.CallToolResult, viewer.SessionView, error) {
	sess, err := s.loadSession(input.SessionID)
	if err != nil {
		return nil, viewer.SessionView{}, err
	}

	recent := input.Recent
	if recent == 0 {
		recent = viewer.DefaultRecent
	}
	output := viewer.BuildView(sess, s.now(), recent)
	return textResult(output), output, nil
}

// SessionOutput defines output for session listings.
type SessionOutput struct {
	ID              string                 `json:"id"`
	Name            string                 `json:"name"`
	IsActive        bool                   `json:"is_active"`
	CurrentLocation *models.LocationSample `json:"current_location,omitempty"`
	Points          int                    `json:"points"`
}

// ListSessionsOutput defines output for list_sessions tool.
type ListSessionsOutput struct {
	Sessions []SessionOutput `json:"sessions"`
	Count    int             `json:"count"`
}

// ListSessionsInput is empty but required for type.
type ListSessionsInput struct{}

func (s *Server) registerListSessionsTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_sessions",
		Description: "List all tracking sessions with their current locations.",
		InputSchema: map[string]interface{}{
			"type": "object",
		},
	}, s.handleListSessions)
}

func (s *Server) handleListSessions(_ context.Context, req *mcp.CallToolRequest, input ListSessionsInput) (*mcp.CallToolResult, ListSessionsOutput, error) {
	output, err := s.listSessions()
	if err != nil {
		return nil, ListSessionsOutput{}, err
	}
	return textResult(output), output, nil
}

func (s *Server) listSessions() (ListSessionsOutput, error) {
	dir, err := s.sessions.List()
	if err != nil {
		return ListSessionsOutput{}, fmt.Errorf("failed to list sessions: %w", err)
	}

	outputs := make([]SessionOutput, 0, len(dir))
	for _, entry := range dir {
		out := SessionOutput{ID: entry.ID, Name: entry.Name, IsActive: entry.IsActive}
		if sess, err := s.sessions.Load(entry.ID); err == nil {
			out.CurrentLocation = sess.CurrentLocation
			out.Points = len(sess.LocationHistory)
		}
		outputs = append(outputs, out)
	}

	return ListSessionsOutput{Sessions: outputs, Count: len(outputs)}, nil
}

// SessionIDInput defines input for tools that take only a session.
type SessionIDInput struct {
	SessionID string `json:"session_id"`
}

// ResultOutput defines output for destructive tools.
type ResultOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func sessionIDSchema(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"session_id": map[string]interface{}{
				"type":        "string",
				"description": desc,
			},
		},
		"required": []string{"session_id"},
	}
}

func (s *Server) registerClearHistoryTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "clear_history",
		Description: "Empty a session's location history and current location. The session and its links stay.",
		InputSchema: sessionIDSchema("ID of the session to clear"),
	}, s.handleClearHistory)
}

func (s *Server) handleClearHistory(_ context.Context, req *mcp.CallToolRequest, input SessionIDInput) (*mcp.CallToolResult, ResultOutput, error) {
	sess, err := s.loadSession(input.SessionID)
	if err != nil {
		return nil, ResultOutput{}, err
	}

	sess.Clear()
	if err := s.history.Save(sess.ID, sess.LocationHistory); err != nil {
		return nil, ResultOutput{}, fmt.Errorf("failed to clear history: %w", err)
	}
	if err := s.sessions.Upsert(sess); err != nil {
		return nil, ResultOutput{}, fmt.Errorf("failed to save session: %w", err)
	}

	output := ResultOutput{
		Success: true,
		Message: fmt.Sprintf("Cleared history of '%s'", sess.Name),
	}
	return textResult(output), output, nil
}

func (s *Server) registerDeleteSessionTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "delete_session",
		Description: "Remove a session, its history and every short link pointing at it. This cannot be undone.",
		InputSchema: sessionIDSchema("ID of the session to remove"),
	}, s.handleDeleteSession)
}

func (s *Server) handleDeleteSession(_ context.Context, req *mcp.CallToolRequest, input SessionIDInput) (*mcp.CallToolResult, ResultOutput, error) {
	sess, err := s.loadSession(input.SessionID)
	if err != nil {
		return nil, ResultOutput{}, err
	}

	links, err := s.links.ForSession(sess.ID)
	if err != nil {
		return nil, ResultOutput{}, fmt.Errorf("failed to list links: %w", err)
	}
	for _, l := range links {
		if err := s.links.Delete(l.ShortCode); err != nil {
			return nil, ResultOutput{}, fmt.Errorf("failed to remove link %s: %w", l.ShortCode, err)
		}
	}
	if err := s.history.Delete(sess.ID); err != nil {
		return nil, ResultOutput{}, fmt.Errorf("failed to remove history: %w", err)
	}
	if err := s.sessions.Delete(sess.ID); err != nil {
		return nil, ResultOutput{}, fmt.Errorf("failed to remove session: %w", err)
	}

	output := ResultOutput{
		Success: true,
		Message: fmt.Sprintf("Removed '%s', its history and %d link(s)", sess.Name, len(links)),
	}
	return textResult(output), output, nil
}

// LinkOutput defines output for link tools.
type LinkOutput struct {
	ShortCode   string    `json:"short_code"`
	ShareURL    string    `json:"share_url"`
	OriginalURL string    `json:"original_url"`
	SessionID   string    `json:"session_id"`
	Clicks      int       `json:"clicks"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *Server) linkOutput(l models.ShortLink) LinkOutput {
	return LinkOutput{
		ShortCode:   l.ShortCode,
		ShareURL:    shortlink.ShareURL(s.baseURL, l.ShortCode),
		OriginalURL: l.OriginalURL,
		SessionID:   l.SessionID,
		Clicks:      l.Clicks,
		CreatedAt:   l.Created().UTC(),
	}
}

func (s *Server) registerCreateLinkTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "create_link",
		Description: "Create a short share link that opens the live map for a session.",
		InputSchema: sessionIDSchema("ID of the session to share"),
	}, s.handleCreateLink)
}

func (s *Server) handleCreateLink(_ context.Context, req *mcp.CallToolRequest, input SessionIDInput) (*mcp.CallToolResult, LinkOutput, error) {
	sess, err := s.loadSession(input.SessionID)
	if err != nil {
		return nil, LinkOutput{}, err
	}

	code, err := s.links.Create(shortlink.ViewerURL(s.baseURL, sess.ID), sess.ID)
	if err != nil {
		return nil, LinkOutput{}, fmt.Errorf("failed to create link: %w", err)
	}
	link, err := s.links.Resolve(code)
	if err != nil {
		return nil, LinkOutput{}, fmt.Errorf("failed to read back link: %w", err)
	}

	output := s.linkOutput(*link)
	return textResult(output), output, nil
}

// CodeInput defines input for tools that take a short code.
type CodeInput struct {
	Code string `json:"code"`
}

func codeSchema(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"code": map[string]interface{}{
				"type":        "string",
				"description": desc,
			},
		},
		"required": []string{"code"},
	}
}

func (s *Server) registerResolveLinkTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "resolve_link",
		Description: "Look up where a short code points. Does not count as a click.",
		InputSchema: codeSchema("The 6-character short code"),
	}, s.handleResolveLink)
}

func (s *Server) handleResolveLink(_ context.Context, req *mcp.CallToolRequest, input CodeInput) (*mcp.CallToolResult, LinkOutput, error) {
	link, err := s.links.Resolve(input.Code)
	if errors.Is(err, shortlink.ErrNotFound) {
		return nil, LinkOutput{}, fmt.Errorf("link '%s' not found", input.Code)
	}
	if err != nil {
		return nil, LinkOutput{}, err
	}

	output := s.linkOutput(*link)
	return textResult(output), output, nil
}

// ListLinksOutput defines output for list_links tool.
type ListLinksOutput struct {
	Links  []LinkOutput `json:"links"`
	Count  int          `json:"count"`
	Clicks int          `json:"clicks"`
}

// ListLinksInput filters list_links to one session when set.
type ListLinksInput struct {
	SessionID string `json:"session_id,omitempty"`
}

func (s *Server) registerListLinksTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_links",
		Description: "List short links, newest first, with click counts.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Only list links for this session",
				},
			},
		},
	}, s.handleListLinks)
}

func (s *Server) handleListLinks(_ context.Context, req *mcp.CallToolRequest, input ListLinksInput) (*mcp.CallToolResult, ListLinksOutput, error) {
	links, err := s.links.ListNewestFirst()
	if err != nil {
		return nil, ListLinksOutput{}, fmt.Errorf("failed to list links: %w", err)
	}

	output := ListLinksOutput{Links: make([]LinkOutput, 0, len(links))}
	for _, l := range links {
		if input.SessionID != "" && l.SessionID != input.SessionID {
			continue
		}
		output.Links = append(output.Links, s.linkOutput(l))
		output.Clicks += l.Clicks
	}
	output.Count = len(output.Links)

	return textResult(output), output, nil
}

func (s *Server) registerDeleteLinkTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "delete_link",
		Description: "Remove a short link. The session it points at is kept.",
		InputSchema: codeSchema("The short code to remove"),
	}, s.handleDeleteLink)
}

func (s *Server) handleDeleteLink(_ context.Context, req *mcp.CallToolRequest, input CodeInput) (*mcp.CallToolResult, ResultOutput, error) {
	if _, err := s.links.Resolve(input.Code); errors.Is(err, shortlink.ErrNotFound) {
		return nil, ResultOutput{}, fmt.Errorf("link '%s' not found", input.Code)
	}
	if err := s.links.Delete(input.Code); err != nil {
		return nil, ResultOutput{}, fmt.Errorf("failed to remove link: %w", err)
	}

	output := ResultOutput{
		Success: true,
		Message: fmt.Sprintf("Removed link '%s'", input.Code),
	}
	return textResult(output), output, nil
}
