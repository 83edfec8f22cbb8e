// Package mcp exposes the wish simulator as Model Context Protocol tools.
package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"wish-machine/internal/config"
	"wish-machine/internal/simulation"
)

// Server holds the state for the MCP server.
type Server struct {
	cfg       *config.AppConfig
	version   string
	newEngine func() *simulation.Engine
}

// NewServer creates a new MCP server.
func NewServer(cfg *config.AppConfig, version string) *Server {
	return &Server{
		cfg:     cfg,
		version: version,
		newEngine: func() *simulation.Engine {
			e := simulation.NewEngine()
			e.UseAnalyticBaseline(cfg.AnalyticBaseline)
			return e
		},
	}
}

// build registers every tool on a fresh SDK server.
func (s *Server) build() (*mcpsdk.Server, error) {
	server := mcpsdk.NewServer(&mcpsdk.Implementation{Name: "wish-machine", Version: s.version}, nil)

	schema, err := simulateWishSchema()
	if err != nil {
		return nil, fmt.Errorf("simulate_wish schema: %w", err)
	}
	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        simulateWishTool,
		Description: simulateWishDescription,
		InputSchema: schema,
	}, s.handleSimulateWish)

	return server, nil
}

// Start serves over stdio until the client disconnects or ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	log.Info().Msg("MCP Server starting stdio loop")
	return s.Serve(ctx, &mcpsdk.StdioTransport{})
}

// Serve runs the server on an arbitrary transport.
func (s *Server) Serve(ctx context.Context, transport mcpsdk.Transport) error {
	server, err := s.build()
	if err != nil {
		return err
	}
	return server.Run(ctx, transport)
}
