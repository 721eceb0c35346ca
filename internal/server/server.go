package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ordinalscale/contract-vault/constants"
	"github.com/ordinalscale/contract-vault/internal/repository"
)

// Ingestor is the pipeline surface the upload handler drives.
// *pipeline.Controller satisfies it.
type Ingestor interface {
	Ingest(ctx context.Context, name string, data []byte) (uuid.UUID, error)
	Status() constants.Status
	Ready() bool
	CanSubmit() bool
}

// Exporter produces the contracts workbook.
type Exporter interface {
	ContractsXLSX(ctx context.Context) ([]byte, error)
}

// Pinger checks a dependency for the health endpoint.
type Pinger func(ctx context.Context) error

// Server wires the ingestion pipeline and dashboard reads behind HTTP.
type Server struct {
	pipeline  Ingestor
	contracts repository.ContractRepository
	exporter  Exporter
	ping      Pinger
	logger    *slog.Logger
}

func New(pipeline Ingestor, contracts repository.ContractRepository, exporter Exporter, ping Pinger, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		pipeline:  pipeline,
		contracts: contracts,
		exporter:  exporter,
		ping:      ping,
		logger:    logger,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/contracts", s.uploadContract)
	r.GET("/contracts", s.listContracts)
	r.GET("/contracts/export", s.exportContracts)
	r.GET("/contracts/:id", s.getContract)
	r.GET("/status", s.getStatus)
	r.GET("/healthz", s.healthz)

	return r
}

func (s *Server) getStatus(c *gin.Context) {
	st := s.pipeline.Status()
	c.JSON(http.StatusOK, gin.H{
		"status":         st,
		"label":          st.Label(),
		"renderer_ready": s.pipeline.Ready(),
		"can_submit":     s.pipeline.CanSubmit(),
	})
}

func (s *Server) healthz(c *gin.Context) {
	if s.ping != nil {
		if err := s.ping(c.Request.Context()); err != nil {
			s.logger.Error("health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
