// ABOUTME: MCP resource definitions
// ABOUTME: Provides read-only views for AI agents

package mcp

import (
	"context"
	"encoding/json"

	"github.com/harper/beacon/internal/geojson"
	"github.com/harper/beacon/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	sessionsURI = "beacon://sessions"
	geojsonURI  = "beacon://sessions.geojson"
)

func (s *Server) registerResources() {
	s.mcp.AddResource(&mcp.Resource{
		Name:        sessionsURI,
		Description: "All tracking sessions with their current locations",
		URI:         sessionsURI,
		MIMEType:    "application/json",
	}, s.handleSessionsResource)

	s.mcp.AddResource(&mcp.Resource{
		Name:        geojsonURI,
		Description: "Every session's track as GeoJSON LineStrings",
		URI:         geojsonURI,
		MIMEType:    "application/geo+json",
	}, s.handleGeoJSONResource)
}

func (s *Server) handleSessionsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	output, err := s.listSessions()
	if err != nil {
		return nil, err
	}

	jsonBytes, _ := json.MarshalIndent(output, "", "  ") //nolint:errchkjson // output is always serializable

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      sessionsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		},
	}, nil
}

func (s *Server) handleGeoJSONResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	sessions, err := storage.GetSessions(s.sessions, "")
	if err != nil {
		return nil, err
	}

	data, err := geojson.ToLineFeatureCollection(sessions).ToJSON()
	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      geojsonURI,
				MIMEType: "application/geo+json",
				Text:     string(data),
			},
		},
	}, nil
}
