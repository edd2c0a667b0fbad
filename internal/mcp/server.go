package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gource-tools/gource-tools/internal/service"
)

// Server implements the Model Context Protocol (MCP) server.
// It exposes the project catalog to external agents.
type Server struct {
	projects *service.ProjectService
	repos    *service.RepoService
	links    *service.LinkService
	port     string
}

// NewServer creates a new MCP server.
func NewServer(projects *service.ProjectService, repos *service.RepoService, links *service.LinkService, port string) *Server {
	return &Server{
		projects: projects,
		repos:    repos,
		links:    links,
		port:     port,
	}
}

// Tool represents an MCP tool definition.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// JSONRPCRequest represents a JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *RPCError `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC error.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Handler returns the MCP HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/mcp", s.handleRPC)
	mux.HandleFunc("/mcp/sse", s.handleSSE)
	return mux
}

// Start begins the MCP server on the configured port.
func (s *Server) Start() error {
	slog.Info("MCP server starting", "port", s.port)
	return http.ListenAndServe(":"+s.port, s.Handler())
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, nil, -32700, "parse error")
		return
	}

	var result any
	var err error

	switch req.Method {
	case "tools/list":
		result = s.listTools()
	case "tools/call":
		result, err = s.callTool(r.Context(), req.Params)
	case "initialize":
		result = map[string]any{
			"protocolVersion": "2024-11-05",
			"serverInfo": map[string]string{
				"name":    "gource-tools",
				"version": "1.0.0",
			},
			"capabilities": map[string]any{
				"tools": map[string]bool{"listChanged": false},
			},
		}
	default:
		writeError(w, req.ID, -32601, "method not found")
		return
	}

	if err != nil {
		writeError(w, req.ID, -32603, err.Error())
		return
	}

	writeResult(w, req.ID, result)
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: endpoint\ndata: /mcp\n\n")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	<-r.Context().Done()
}

func (s *Server) listTools() map[string]any {
	tools := []Tool{
		{
			Name:        "list_projects",
			Description: "List all projects with the ids of their linked repositories",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {}
			}`),
		},
		{
			Name:        "list_repositories",
			Description: "List repositories, optionally only those linked to a project or matching a query",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"project_id": {"type": "integer", "description": "Project ID"},
					"query": {"type": "string", "description": "Substring of name or URL"}
				}
			}`),
		},
		{
			Name:        "link_repository",
			Description: "Link a repository to a project",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"project_id": {"type": "integer", "description": "Project ID"},
					"repository_id": {"type": "integer", "description": "Repository ID"}
				},
				"required": ["project_id", "repository_id"]
			}`),
		},
		{
			Name:        "unlink_repository",
			Description: "Remove a repository from a project",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"project_id": {"type": "integer", "description": "Project ID"},
					"repository_id": {"type": "integer", "description": "Repository ID"}
				},
				"required": ["project_id", "repository_id"]
			}`),
		},
	}
	return map[string]any{"tools": tools}
}

type linkArgs struct {
	ProjectID    int64 `json:"project_id"`
	RepositoryID int64 `json:"repository_id"`
}

func (s *Server) callTool(ctx context.Context, params json.RawMessage) (any, error) {
	var req struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if len(req.Arguments) == 0 {
		req.Arguments = json.RawMessage("{}")
	}

	switch req.Name {
	case "list_projects":
		projects, err := s.projects.List(ctx)
		if err != nil {
			return nil, err
		}
		return textContent(projects)

	case "list_repositories":
		var args struct {
			ProjectID int64  `json:"project_id"`
			Query     string `json:"query"`
		}
		if err := json.Unmarshal(req.Arguments, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		repos, err := s.repos.List(ctx, args.ProjectID, args.Query)
		if err != nil {
			return nil, err
		}
		return textContent(repos)

	case "link_repository":
		var args linkArgs
		if err := json.Unmarshal(req.Arguments, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		link, err := s.links.Link(ctx, args.ProjectID, args.RepositoryID)
		if err != nil {
			return nil, err
		}
		return textContent(link)

	case "unlink_repository":
		var args linkArgs
		if err := json.Unmarshal(req.Arguments, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		if err := s.links.Unlink(ctx, args.ProjectID, args.RepositoryID); err != nil {
			return nil, err
		}
		return textContent(map[string]bool{"unlinked": true})

	default:
		return nil, fmt.Errorf("unknown tool: %s", req.Name)
	}
}

// textContent wraps v as a single JSON text block.
func textContent(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": string(data)},
		},
	}, nil
}

func writeResult(w http.ResponseWriter, id any, result any) {
	resp := JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: result}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func writeError(w http.ResponseWriter, id any, code int, message string) {
	resp := JSONRPCResponse{JSONRPC: "2.0", ID: id, Error: &RPCError{Code: code, Message: message}}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
