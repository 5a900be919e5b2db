package mcpserver

import (
	"net/http"

	"github.com/akolanti/vellum/internal/config"
	"github.com/akolanti/vellum/internal/rag"
	"github.com/akolanti/vellum/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const Version = "1.0.0"

// Server exposes retrieval and chat as MCP tools.
type Server struct {
	rag    rag.Service
	server *mcp.Server
	logger *logger_i.Logger
}

func New(ragService rag.Service) *Server {
	impl := &mcp.Implementation{
		Name:    "vellum",
		Title:   config.ProjectName,
		Version: Version,
	}
	s := &Server{
		rag:    ragService,
		server: mcp.NewServer(impl, nil),
		logger: logger_i.NewLogger("MCP"),
	}
	s.registerTools()
	return s
}

// Handler serves the streamable HTTP transport. Every request shares one server.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)
}
