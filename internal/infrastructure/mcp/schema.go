package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/essaycoach/pkg/domain/analysis"
)

// SchemaVersion is the current MCP tool schema version (semver).
const SchemaVersion = "1.0.0"

const schemaURI = "essaycoach://schema"

type schemaResponse struct {
	SchemaVersion string                     `json:"schema_version"`
	ServerVersion string                     `json:"server_version"`
	Actions       map[string]json.RawMessage `json:"actions"`
}

// actionSchemas returns the JSON schema each backend action's answer must satisfy.
func actionSchemas() map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(analysis.Actions()))
	for _, a := range analysis.Actions() {
		out[string(a)] = json.RawMessage(analysis.SchemaFor(a))
	}
	return out
}

func (s *Server) registerSchemaResource() {
	s.mcpServer.Resource(schemaURI).
		Name(schemaURI).
		Description("Tool schema version and the response schema of every analysis action").
		MimeType("application/json").
		Handler(func(_ context.Context, _ string, _ map[string]string) (*mcplib.ResourceContent, error) {
			data, err := json.Marshal(schemaResponse{
				SchemaVersion: SchemaVersion,
				ServerVersion: Version,
				Actions:       actionSchemas(),
			})
			if err != nil {
				return nil, err
			}
			return &mcplib.ResourceContent{
				URI:      schemaURI,
				MimeType: "application/json",
				Text:     string(data),
			}, nil
		})
}
