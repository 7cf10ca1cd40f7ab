// Copyright 2025 Parlance Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/parlancehq/parlance/ingestion"
	"github.com/parlancehq/parlance/query"
)

// Server exposes the ingestion and query pipelines over HTTP.
type Server struct {
	engine      *gin.Engine
	coordinator *ingestion.Coordinator
	service     *query.Service
	logger      *slog.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets a custom logger. Default is slog.Default().
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(coordinator *ingestion.Coordinator, service *query.Service, opts ...ServerOption) *Server {
	s := &Server{
		coordinator: coordinator,
		service:     service,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/health", s.handleHealth)

	apiGroup := engine.Group("/api")
	{
		apiGroup.POST("/upload", s.handleUpload)
		apiGroup.GET("/status/:document_id", s.handleStatus)
		apiGroup.GET("/documents", s.handleListDocuments)
		apiGroup.POST("/query", s.handleQuery)
	}

	s.engine = engine
	return s
}

// Engine returns the underlying gin engine, mainly for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run serves HTTP on the given address until the listener fails.
func (s *Server) Run(address string) error {
	s.logger.Info("http server listening", "address", address)
	return s.engine.Run(address)
}
