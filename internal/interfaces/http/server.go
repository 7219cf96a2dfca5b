package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agentdeck/agentdeck/internal/domain/repository"
	"github.com/agentdeck/agentdeck/internal/infrastructure/llm"
	"github.com/agentdeck/agentdeck/internal/interfaces/http/handlers"
	"github.com/agentdeck/agentdeck/internal/session"
	"github.com/agentdeck/agentdeck/internal/skills"
)

// Server hosts the REST API and the WebSocket execution endpoint.
type Server struct {
	server *http.Server
	logger *zap.Logger
}

// Config is the HTTP listener configuration.
type Config struct {
	Host string
	Port int
	Mode string // debug, release
}

// Deps bundles the collaborators the route handlers need.
type Deps struct {
	Agents     repository.AgentRepository
	Skills     repository.SkillRepository
	Executions repository.ExecutionRepository
	Invoker    llm.Invoker
	SkillSvc   *skills.Service
	Sessions   *session.Controller
}

func NewServer(cfg Config, deps Deps, logger *zap.Logger) *Server {
	if cfg.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logger))

	agentHandler := handlers.NewAgentHandler(deps.Agents, deps.Skills, deps.Executions, deps.Invoker, logger)
	skillHandler := handlers.NewSkillHandler(deps.SkillSvc, logger)
	executionHandler := handlers.NewExecutionHandler(deps.Executions, logger)

	setupRoutes(router, agentHandler, skillHandler, executionHandler, deps.Sessions)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	return &Server{
		server: &http.Server{Addr: addr, Handler: router},
		logger: logger,
	}
}

// Start begins serving in the background. Listen errors surface in the log.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server", zap.String("address", s.server.Addr))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop drains in-flight requests and shuts the listener down.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.server.Shutdown(ctx)
}

func setupRoutes(router *gin.Engine, agentHandler *handlers.AgentHandler, skillHandler *handlers.SkillHandler, executionHandler *handlers.ExecutionHandler, sessions *session.Controller) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "agentdeck",
			"status":  "running",
		})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Unix(),
		})
	})

	api := router.Group("/api/v1")
	{
		// One-off prompt execution without a saved agent.
		api.POST("/execute", agentHandler.ExecuteAdHoc)

		agents := api.Group("/agents")
		{
			agents.POST("", agentHandler.Create)
			agents.GET("", agentHandler.List)
			agents.GET("/:id", agentHandler.Get)
			agents.PUT("/:id", agentHandler.Update)
			agents.DELETE("/:id", agentHandler.Delete)
			agents.POST("/:id/execute", agentHandler.Execute)

			agents.GET("/:id/skills", skillHandler.ListByAgent)
			agents.POST("/:id/skills", skillHandler.Attach)
			agents.DELETE("/:id/skills/:skillID", skillHandler.Detach)
		}

		skillRoutes := api.Group("/skills")
		{
			skillRoutes.POST("", skillHandler.Register)
			skillRoutes.GET("", skillHandler.List)
			skillRoutes.GET("/catalog", skillHandler.VendorCatalog)
			skillRoutes.GET("/:id", skillHandler.Get)
			skillRoutes.DELETE("/:id", skillHandler.Delete)
			skillRoutes.POST("/:id/retry", skillHandler.RetryUpload)
		}

		executions := api.Group("/executions")
		{
			executions.GET("", executionHandler.List)
			executions.GET("/:id", executionHandler.Get)
		}
	}

	// Execution sessions run over a plain upgraded connection, outside the
	// gin JSON rendering pipeline.
	router.GET("/ws/agents/:id/execute", func(c *gin.Context) {
		sessions.ServeWS(c.Writer, c.Request, c.Param("id"))
	})
}

func ginLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}
