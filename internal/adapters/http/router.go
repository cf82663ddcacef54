package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/chamlab/lobby/internal/adapters/rtc"
	"github.com/chamlab/lobby/internal/adapters/signal"
	"github.com/chamlab/lobby/internal/config"
	"github.com/chamlab/lobby/internal/lobby"
)

// ClientTokenMiddleware gives every browser a stable token in its
// cookie session, used to correlate connection logs.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		token, _ := sess.Get("ct").(string)
		if token == "" {
			token = uuid.NewString()
			sess.Set("ct", token)
			if err := sess.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("session save")
			}
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, lob *lobby.Lobby) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("LobbySessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	ctrl := signal.NewController(lob, cfg)
	rtcConfig := rtc.Config(cfg.STUNServers)

	api := r.Group("/api")

	api.GET("/health", func(c *gin.Context) {
		clients, tracks := lob.Stats()
		c.JSON(http.StatusOK, gin.H{"status": "ok", "clients": clients, "tracks": tracks})
	})

	api.GET("/rtc/config", func(c *gin.Context) {
		c.JSON(http.StatusOK, rtcConfig)
	})

	api.GET("/ws", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("sid", c.GetString("client_token")).Msg("ws lobby endpoint hit")
		ctrl.HandleLobby(ctx, c)
	})

	return r
}
