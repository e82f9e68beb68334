package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/babelchat/internal/config"
	"github.com/vovakirdan/babelchat/internal/core"
	"github.com/vovakirdan/babelchat/internal/metrics"
)

// NewServer builds the HTTP server: websocket gateway, room API, health and metrics.
// /ws bypasses gin so the websocket handshake can hijack an unwritten response.
func NewServer(hub *core.Hub, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", healthHandler)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	rooms := NewRoomHandlers(hub.Registry(), logger)
	api := router.Group("/api")
	{
		api.GET("/languages", rooms.ListLanguages)
		api.POST("/rooms", rooms.CreateRoom)
		api.GET("/rooms/:id", rooms.GetRoom)
	}

	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(hub, cfg, logger))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
