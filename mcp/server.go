// Package mcp implements a Model Context Protocol (MCP) server that exposes
// the procurement document engine as tools and resources for AI assistants.
//
// The server communicates via JSON-RPC 2.0 over stdio and implements the
// MCP specification (2024-11-05) for tools and resources. Requests are
// handled one at a time in arrival order.
//
// # Usage with an MCP client
//
//	{
//	  "mcpServers": {
//	    "procuredocs": {
//	      "command": "docgen-mcp",
//	      "env": {"DOCS_FONT_DIR": "/usr/share/fonts/noto"}
//	    }
//	  }
//	}
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

const protocolVersion = "2024-11-05"

// Server is an MCP server that handles JSON-RPC 2.0 messages over stdio.
type Server struct {
	name      string
	version   string
	tools     map[string]Tool
	resources map[string]Resource
	templates []ResourceTemplate
	input     io.Reader
	output    io.Writer
	log       logrus.FieldLogger
	mu        sync.Mutex
}

// Tool defines an MCP tool that can be called by the client.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
	Handler     ToolHandler    `json:"-"`
}

// ToolHandler executes a tool with the raw JSON arguments of the call.
type ToolHandler func(ctx context.Context, args json.RawMessage) (ToolResult, error)

// ToolResult is the result returned by a tool execution.
type ToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// ContentBlock is a piece of content in a tool result.
type ContentBlock struct {
	Type     string `json:"type"` // "text" or "resource"
	Text     string `json:"text,omitempty"`
	MIMEType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"` // base64 for binary
}

// Resource defines a fixed MCP resource.
type Resource struct {
	URI         string          `json:"uri"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	MIMEType    string          `json:"mimeType,omitempty"`
	Handler     ResourceHandler `json:"-"`
}

// ResourceTemplate serves every URI starting with Prefix, advertised to
// clients as URITemplate, e.g. "template://{id}".
type ResourceTemplate struct {
	URITemplate string          `json:"uriTemplate"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	MIMEType    string          `json:"mimeType,omitempty"`
	Prefix      string          `json:"-"`
	Handler     ResourceHandler `json:"-"`
}

// ResourceHandler reads a resource and returns its content.
type ResourceHandler func(ctx context.Context, uri string) ([]ResourceContent, error)

// ResourceContent is the content of a read resource.
type ResourceContent struct {
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"` // base64
}

// JSON-RPC types
type jsonrpcRequest struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method"`
	Params  json.RawMessage  `json:"params,omitempty"`
}

type jsonrpcResponse struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id"`
	Result  any              `json:"result,omitempty"`
	Error   *jsonrpcError    `json:"error,omitempty"`
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

const (
	codeParse          = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternal       = -32603
)

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithIO replaces stdin and stdout, mostly for tests.
func WithIO(in io.Reader, out io.Writer) ServerOption {
	return func(s *Server) { s.input, s.output = in, out }
}

// WithLogger sets the logger. It must not write to the protocol output.
func WithLogger(l logrus.FieldLogger) ServerOption {
	return func(s *Server) { s.log = l }
}

// WithVersion sets the version reported to clients.
func WithVersion(v string) ServerOption {
	return func(s *Server) { s.version = v }
}

// NewServer creates a new MCP server reading from stdin and writing to stdout.
func NewServer(opts ...ServerOption) *Server {
	log := logrus.New()
	log.SetOutput(io.Discard)
	s := &Server{
		name:      "procuredocs-mcp",
		version:   "1.0.0",
		tools:     make(map[string]Tool),
		resources: make(map[string]Resource),
		input:     os.Stdin,
		output:    os.Stdout,
		log:       log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddTool registers a tool with the server.
func (s *Server) AddTool(t Tool) {
	s.tools[t.Name] = t
}

// AddResource registers a resource with the server.
func (s *Server) AddResource(r Resource) {
	s.resources[r.URI] = r
}

// AddResourceTemplate registers a family of resources sharing a prefix.
func (s *Server) AddResourceTemplate(t ResourceTemplate) {
	s.templates = append(s.templates, t)
}

// Run processes messages until EOF or until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.input)
	// MCP uses newline-delimited JSON
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req jsonrpcRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.sendError(nil, codeParse, "Parse error", err.Error())
			continue
		}

		s.handleRequest(ctx, req)
	}

	return scanner.Err()
}

func (s *Server) handleRequest(ctx context.Context, req jsonrpcRequest) {
	var (
		result any
		rpcErr *jsonrpcError
	)
	switch req.Method {
	case "initialize":
		result = s.initialize()
	case "ping":
		result = map[string]any{}
	case "tools/list":
		result = s.listTools()
	case "tools/call":
		result, rpcErr = s.callTool(ctx, req.Params)
	case "resources/list":
		result = s.listResources()
	case "resources/templates/list":
		result = map[string]any{"resourceTemplates": s.templates}
	case "resources/read":
		result, rpcErr = s.readResource(ctx, req.Params)
	default:
		if req.ID == nil {
			// notifications such as notifications/initialized need no reply
			return
		}
		rpcErr = &jsonrpcError{Code: codeMethodNotFound, Message: "Method not found", Data: req.Method}
	}
	if rpcErr != nil {
		s.sendError(req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	s.sendResult(req.ID, result)
}

func invalidParams(msg string, data any) *jsonrpcError {
	return &jsonrpcError{Code: codeInvalidParams, Message: msg, Data: data}
}

func (s *Server) initialize() map[string]any {
	return map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]any{
			"tools":     map[string]any{},
			"resources": map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    s.name,
			"version": s.version,
		},
	}
}

func (s *Server) listTools() map[string]any {
	tools := make([]Tool, 0, len(s.tools))
	for _, t := range s.tools {
		tools = append(tools, t)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return map[string]any{"tools": tools}
}

// callTool runs a tool. Tool failures are results flagged IsError so the
// model can read them; only protocol problems are JSON-RPC errors.
func (s *Server) callTool(ctx context.Context, raw json.RawMessage) (any, *jsonrpcError) {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, invalidParams("Invalid params", err.Error())
	}
	tool, ok := s.tools[params.Name]
	if !ok {
		return nil, invalidParams("Unknown tool", params.Name)
	}

	result, err := tool.Handler(ctx, params.Arguments)
	if err != nil {
		s.log.WithError(err).WithField("tool", params.Name).Warn("tool call failed")
		return ToolResult{
			Content: []ContentBlock{{Type: "text", Text: fmt.Sprintf("Error: %v", err)}},
			IsError: true,
		}, nil
	}
	return result, nil
}

func (s *Server) listResources() map[string]any {
	resources := make([]Resource, 0, len(s.resources))
	for _, r := range s.resources {
		resources = append(resources, r)
	}
	sort.Slice(resources, func(i, j int) bool { return resources[i].URI < resources[j].URI })
	return map[string]any{"resources": resources}
}

func (s *Server) readResource(ctx context.Context, raw json.RawMessage) (any, *jsonrpcError) {
	var params struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, invalidParams("Invalid params", err.Error())
	}
	handler := s.resourceHandler(params.URI)
	if handler == nil {
		return nil, invalidParams("Unknown resource", params.URI)
	}
	contents, err := handler(ctx, params.URI)
	if err != nil {
		return nil, &jsonrpcError{Code: codeInternal, Message: "Resource error", Data: err.Error()}
	}
	return map[string]any{"contents": contents}, nil
}

func (s *Server) resourceHandler(uri string) ResourceHandler {
	if r, ok := s.resources[uri]; ok {
		return r.Handler
	}
	for _, t := range s.templates {
		if strings.HasPrefix(uri, t.Prefix) && len(uri) > len(t.Prefix) {
			return t.Handler
		}
	}
	return nil
}

func (s *Server) sendResult(id *json.RawMessage, result any) {
	s.send(jsonrpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	})
}

func (s *Server) sendError(id *json.RawMessage, code int, message string, data any) {
	s.send(jsonrpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &jsonrpcError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	})
}

func (s *Server) send(resp jsonrpcResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(resp)
	if err != nil {
		s.log.WithError(err).Error("encoding response")
		return
	}
	data = append(data, '\n')
	if _, err := s.output.Write(data); err != nil {
		s.log.WithError(err).Error("writing response")
	}
}
