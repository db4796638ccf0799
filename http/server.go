// Package http serves predictions from a trained model over REST and websocket.
package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"sgdreg/logger"
)

type ServerConfig struct {
	Port      int
	Timeout   time.Duration
	CacheSize int
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:      8080,
		Timeout:   30 * time.Second,
		CacheSize: 1024,
	}
}

type Server struct {
	server   *http.Server
	holder   *ModelHolder
	cache    *lru.Cache[string, float64]
	cacheFor atomic.Uint64
	upgrader websocket.Upgrader
	stats    *Stats
	log      *zap.Logger
}

// NewServer wires the prediction routes. A CacheSize of 0 disables the prediction cache.
func NewServer(config ServerConfig, holder *ModelHolder, log *zap.Logger) (*Server, error) {
	log = logger.OrNop(log)
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	s := &Server{
		holder: holder,
		stats:  newStats(),
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	if config.CacheSize > 0 {
		cache, err := lru.New[string, float64](config.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("create prediction cache: %w", err)
		}
		s.cache = cache
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)
	handler := Chain(
		RecoveryMiddleware(log),
		LoggerMiddleware(log),
	)(mux)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      handler,
		ReadTimeout:  config.Timeout,
		WriteTimeout: config.Timeout,
		IdleTimeout:  120 * time.Second,
	}
	return s, nil
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/model", s.handleModel)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("POST /api/predict", s.handlePredict)
	mux.HandleFunc("GET /api/ws/predict", s.handlePredictWS)
}

func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Start() error {
	s.log.Info("starting prediction server", zap.String("addr", s.server.Addr), zap.String("model", s.holder.Path()))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.log.Info("shutting down prediction server")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

func (s *Server) Addr() string {
	return s.server.Addr
}

// predict scores features with the current model. The cache is purged the first time
// a newer model version is seen, and keys carry the version so an in-flight request
// on the old model never serves or overwrites values for the new one.
func (s *Server) predict(features []float64) (float64, bool, error) {
	model, version := s.holder.Snapshot()
	key := cacheKey(version, features)
	if s.cache != nil {
		s.purgeStale(version)
		if v, ok := s.cache.Get(key); ok {
			s.stats.predictions.Add(1)
			s.stats.cacheHits.Add(1)
			return v, true, nil
		}
	}
	v, err := model.Predict(features)
	if err != nil {
		s.stats.rejected.Add(1)
		return 0, false, err
	}
	s.stats.predictions.Add(1)
	if s.cache != nil {
		s.cache.Add(key, v)
	}
	return v, false, nil
}

func (s *Server) purgeStale(version uint64) {
	for {
		seen := s.cacheFor.Load()
		if version <= seen {
			return
		}
		if s.cacheFor.CompareAndSwap(seen, version) {
			s.cache.Purge()
			return
		}
	}
}

func cacheKey(version uint64, features []float64) string {
	var b strings.Builder
	b.WriteString(strconv.FormatUint(version, 10))
	for _, f := range features {
		b.WriteByte('|')
		b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	}
	return b.String()
}
