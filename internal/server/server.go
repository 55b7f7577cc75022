package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"emiteNota/internal/config"
	"emiteNota/internal/selection"
	"emiteNota/internal/workspace"
)

type Server struct {
	cfg *config.Cfg
	log *zap.Logger
	ws  *workspace.Workspace

	// партии живут дольше HTTP-запроса; остановка сервера останавливает их через Stop
	base context.Context
}

func New(cfg *config.Cfg, log *zap.Logger, ws *workspace.Workspace) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		cfg:  cfg,
		log:  log,
		ws:   ws,
		base: context.Background(),
	}
}

func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	// Простейший лог-мидлвар
	r.Use(func(c *gin.Context) {
		c.Next()
		s.log.Info("HTTP",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
		)
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.GET("/records", s.listRecords)
	api.POST("/records", s.loadRecords)
	api.POST("/selection", s.changeSelection)
	api.POST("/batch", s.startBatch)
	api.POST("/batch/stop", s.stopBatch)
	api.GET("/batch", s.batchStatus)

	return r
}

// Run слушает до отмены ctx, затем останавливает партию и сервер
func (s *Server) Run(ctx context.Context) error {
	s.base = context.WithoutCancel(ctx)
	addr := fmt.Sprintf("%s:%s", s.cfg.HTTP.Host, s.cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Сервер запущен", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("Остановка сервера")
	s.ws.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) listRecords(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"source":   s.ws.Source(),
		"selected": s.ws.Selection().Count(),
		"rows":     s.ws.Rows(),
	})
}

func (s *Server) loadRecords(c *gin.Context) {
	var req struct {
		Path string `json:"path" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	n, err := s.ws.Load(req.Path)
	if err != nil {
		s.log.Warn("Ошибка загрузки записей", zap.String("path", req.Path), zap.Error(err))
		status := http.StatusBadRequest
		if errors.Is(err, workspace.ErrBusy) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": n})
}

// changeSelection: op = toggle | check | uncheck | all | none | invert
func (s *Server) changeSelection(c *gin.Context) {
	var req struct {
		Op  string   `json:"op" binding:"required"`
		IDs []string `json:"ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state := s.ws.Selection()
	var err error
	switch req.Op {
	case "all":
		state.SelectAll()
	case "none":
		state.ClearAll()
	case "invert":
		state.Invert()
	case "toggle":
		for _, id := range req.IDs {
			if _, err = state.Toggle(id); err != nil {
				break
			}
		}
	case "check", "uncheck":
		for _, id := range req.IDs {
			if err = state.Set(id, req.Op == "check"); err != nil {
				break
			}
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "неизвестная операция " + req.Op})
		return
	}
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"selected": state.Count(), "rows": state.Rows()})
}

func (s *Server) startBatch(c *gin.Context) {
	plan, err := s.ws.Start(s.base)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "dropped": plan.Dropped})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"jobs":     plan.Jobs.Len(),
		"degraded": plan.Jobs.Degraded(),
		"dropped":  plan.Dropped,
	})
}

func (s *Server) stopBatch(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"stopping": s.ws.Stop()})
}

func (s *Server) batchStatus(c *gin.Context) {
	resp := gin.H{"running": s.ws.Running()}
	if report, ok := s.ws.Report(); ok {
		resp["report"] = report
		resp["summary"] = report.Summary()
	}
	c.JSON(http.StatusOK, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, workspace.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, workspace.ErrNothingSelected), errors.Is(err, workspace.ErrNoRecords):
		return http.StatusUnprocessableEntity
	case errors.Is(err, selection.ErrUnknownRow):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
