package server

import (
	"context"
	"image"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ironsheep/plate-gate/internal/imaging"
	"github.com/ironsheep/plate-gate/internal/metrics"
	"github.com/ironsheep/plate-gate/internal/pipeline"
	"github.com/ironsheep/plate-gate/internal/store"
)

const (
	// DefaultFrameQuality is the JPEG quality of streamed frames.
	DefaultFrameQuality = 80
	// DefaultKeepAlive is how often an idle stream repeats its last frame.
	DefaultKeepAlive = 5 * time.Second

	refreshTimeout = 2 * time.Second
)

// Catalog is the read side of the entries store.
type Catalog interface {
	ListEntries(ctx context.Context, f store.Filter) ([]store.Entry, error)
	PlateStatus(ctx context.Context, plate string) (store.Status, error)
}

// LoopControl is the part of the frame loop the server exposes.
type LoopControl interface {
	Pause()
	Resume()
	Paused() bool
	FPS() float64
}

// Server serves the live display and the entries API.
type Server struct {
	entries Catalog
	metrics *metrics.Metrics
	frames  *FrameBroadcaster
	hub     *EventHub
	logger  *zap.SugaredLogger
	engine  *gin.Engine
	http    *http.Server

	// Control is optional. Without it the loop routes answer 503.
	Control LoopControl

	FrameQuality int
	KeepAlive    time.Duration
}

// New creates a server listening on addr. It does not start listening until
// Run.
func New(addr string, entries Catalog, m *metrics.Metrics, logger *zap.SugaredLogger) *Server {
	s := &Server{
		entries:      entries,
		metrics:      m,
		frames:       NewFrameBroadcaster(logger),
		hub:          NewEventHub(logger),
		logger:       logger,
		FrameQuality: DefaultFrameQuality,
		KeepAlive:    DefaultKeepAlive,
	}
	s.engine = s.routes()
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/stream.mjpg", s.handleStream)
	r.GET("/ws", s.handleWebSocket)
	r.GET("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := r.Group("/api")
	{
		api.GET("/entries", s.handleEntries)
		api.GET("/plates/:plate/status", s.handlePlateStatus)
		api.POST("/loop/pause", s.handlePause)
		api.POST("/loop/resume", s.handleResume)
	}
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debugw("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}

// Run serves until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Run() error {
	s.logger.Infow("http server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "http server")
	}
	return nil
}

// Shutdown disconnects stream and websocket clients and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	s.frames.Close()
	return s.http.Shutdown(ctx)
}

// ShowFrame encodes frame and offers it to stream subscribers. Frames are
// not encoded while nobody is watching.
func (s *Server) ShowFrame(frame image.Image) {
	if s.frames.Len() == 0 {
		return
	}
	data, err := imaging.EncodeJPEG(frame, s.FrameQuality)
	if err != nil {
		s.logger.Warnw("failed to encode display frame", "error", err)
		return
	}
	s.frames.Broadcast(data)
}

// Publish pushes an emitted recognition to websocket clients.
func (s *Server) Publish(ev pipeline.RecognitionEvent) {
	msg, err := encodeEvent(ev)
	if err != nil {
		s.logger.Warnw("failed to encode event", "plate", ev.PlateText, "error", err)
		return
	}
	s.hub.Broadcast(msg)
}

// Refresh pushes the latest entries to websocket clients.
func (s *Server) Refresh() {
	if s.hub.Len() == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	entries, err := s.entries.ListEntries(ctx, store.Filter{})
	if err != nil {
		s.logger.Warnw("failed to list entries for refresh", "error", err)
		return
	}
	msg, err := encodeRefresh(entries)
	if err != nil {
		s.logger.Warnw("failed to encode refresh", "error", err)
		return
	}
	s.hub.Broadcast(msg)
}

func (s *Server) handleStream(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.String(http.StatusInternalServerError, "streaming unsupported")
		return
	}

	id, frames := s.frames.Subscribe()
	defer s.frames.Unsubscribe(id)

	h := c.Writer.Header()
	h.Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	h.Set("Connection", "keep-alive")
	c.Status(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(s.KeepAlive)
	defer keepAlive.Stop()

	var last []byte
	for {
		select {
		case <-c.Request.Context().Done():
			return
		case data, ok := <-frames:
			if !ok {
				return
			}
			last = data
			if err := writePart(c.Writer, data); err != nil {
				return
			}
			flusher.Flush()
		case <-keepAlive.C:
			if last == nil {
				continue
			}
			if err := writePart(c.Writer, last); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writePart(w gin.ResponseWriter, data []byte) error {
	if _, err := w.WriteString("--frame\r\nContent-Type: image/jpeg\r\n\r\n"); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err := w.WriteString("\r\n")
	return err
}

func (s *Server) handleWebSocket(c *gin.Context) {
	if err := s.hub.Serve(c.Writer, c.Request); err != nil {
		s.logger.Debugw("websocket closed", "error", err)
	}
}

func (s *Server) handleEntries(c *gin.Context) {
	var f store.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f.Plate = strings.ToUpper(strings.TrimSpace(f.Plate))

	entries, err := s.entries.ListEntries(c.Request.Context(), f)
	if err != nil {
		s.logger.Warnw("failed to list entries", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list entries"})
		return
	}
	if entries == nil {
		entries = []store.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (s *Server) handlePlateStatus(c *gin.Context) {
	plate := strings.ToUpper(strings.TrimSpace(c.Param("plate")))
	status, err := s.entries.PlateStatus(c.Request.Context(), plate)
	if err != nil {
		s.logger.Warnw("failed to look up plate status", "plate", plate, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up plate status"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"plate":        plate,
		"status":       status,
		"status_label": status.String(),
		"color":        statusHex(status),
	})
}

func (s *Server) handlePause(c *gin.Context) {
	if s.Control == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no frame loop attached"})
		return
	}
	s.Control.Pause()
	s.logger.Infow("frame loop paused")
	c.JSON(http.StatusOK, gin.H{"paused": true})
}

func (s *Server) handleResume(c *gin.Context) {
	if s.Control == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no frame loop attached"})
		return
	}
	s.Control.Resume()
	s.logger.Infow("frame loop resumed")
	c.JSON(http.StatusOK, gin.H{"paused": false})
}

func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{
		"status":         "ok",
		"stream_clients": s.frames.Len(),
		"ws_clients":     s.hub.Len(),
	}
	if s.Control != nil {
		body["paused"] = s.Control.Paused()
		body["fps"] = s.Control.FPS()
	}
	c.JSON(http.StatusOK, body)
}

func statusHex(s store.Status) string {
	c, _ := colorful.MakeColor(pipeline.StatusColor(s))
	return c.Hex()
}
