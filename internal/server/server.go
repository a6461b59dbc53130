package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"StockLens/internal/insights"
	"StockLens/internal/logger"
	"StockLens/internal/model"
	"StockLens/internal/session"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// InsightsService computes insights for a raw user-supplied symbol.
type InsightsService interface {
	Get(ctx context.Context, rawSymbol string) (*insights.Result, error)
}

// Watchlist is the per-user symbol store.
type Watchlist interface {
	AddSymbol(ctx context.Context, userID, symbol string) (*model.WatchlistItem, error)
	RemoveSymbol(ctx context.Context, userID, symbol string) error
	ListSymbols(ctx context.Context, userID string) ([]model.WatchlistItem, error)
}

// Queue reports the provider queue state.
type Queue interface {
	Pending() int
	Interval() time.Duration
}

// Options configures the HTTP listener.
type Options struct {
	Addr          string
	RatePerSecond float64 // inbound requests per second, zero disables limiting
	Burst         int
	Debug         bool
}

// Server exposes insights and watchlists over HTTP.
type Server struct {
	Insights  InsightsService
	Watchlist Watchlist
	Sessions  *session.Manager
	Queue     Queue

	engine      *gin.Engine
	http        *http.Server
	limiter     *rate.Limiter
	unsubscribe func()
	log         *logger.Entry
}

// New creates a Server and registers its routes.
func New(opts Options, ins InsightsService, wl Watchlist, sessions *session.Manager, q Queue) *Server {
	if !opts.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		Insights:  ins,
		Watchlist: wl,
		Sessions:  sessions,
		Queue:     q,
		engine:    gin.New(),
		log:       logger.GetLogger().WithComponent("server"),
	}
	if opts.RatePerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}
	s.unsubscribe = sessions.Subscribe(func(e session.Event) {
		s.log.WithFields(logger.Fields{"user_id": e.UserID, "event": e.Type}).Info("auth state changed")
	})

	s.engine.Use(gin.Recovery(), s.requestLog(), s.rateLimit())
	s.setupRoutes()

	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/health", s.getHealth)
		api.GET("/insights/:symbol", s.getInsights)
		api.POST("/session", s.createSession)
		api.DELETE("/session", s.deleteSession)
	}

	watchlist := api.Group("/watchlist", s.requireAuth())
	{
		watchlist.GET("", s.listWatchlist)
		watchlist.POST("", s.addToWatchlist)
		watchlist.DELETE("/:symbol", s.removeFromWatchlist)
	}
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	s.log.WithFields(logger.Fields{"addr": s.http.Addr}).Info("http server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.unsubscribe()
	return s.http.Shutdown(ctx)
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logger.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("request")
	}
}

func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter != nil && !s.limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Please slow down."})
			return
		}
		c.Next()
	}
}
