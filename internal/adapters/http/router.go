package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Canvas/internal/adapters/signal"
	"github.com/dkeye/Canvas/internal/app"
	"github.com/dkeye/Canvas/internal/config"
	"github.com/dkeye/Canvas/internal/core"
	"github.com/dkeye/Canvas/internal/domain"
)

const (
	sessionName     = "CanvasSessions"
	sessionTokenKey = "token"
	userKey         = "user_id"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the HTTP surface is wired to.
type Deps struct {
	Registry *app.Registry
	Signal   *signal.SignalWSController
	Verifier core.CredentialVerifier
	Replay   *app.ReplayLoader
	Health   Pinger
}

// credential picks the token from ?token=, then the Authorization header,
// then the session cookie. fromQuery reports whether it should be
// remembered in the session.
func credential(c *gin.Context) (token string, fromQuery bool) {
	if t := c.Query("token"); t != "" {
		return t, true
	}
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")), false
	}
	if t, ok := sessions.Default(c).Get(sessionTokenKey).(string); ok {
		return t, false
	}
	return "", false
}

// RequireUser rejects the request with 401 unless it carries a valid
// credential. It runs before any websocket upgrade.
func RequireUser(v core.CredentialVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, fromQuery := credential(c)
		uid, err := v.Verify(token)
		if err != nil {
			log.Info().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("credential rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if fromQuery {
			s := sessions.Default(c)
			s.Set(sessionTokenKey, token)
			if err := s.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("session save")
			}
		}
		c.Set(userKey, string(uid))
		c.Next()
	}
}

func currentUser(c *gin.Context) domain.UserID {
	return domain.UserID(c.GetString(userKey))
}

func SetupRouter(ctx context.Context, cfg *config.Config, d Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true})
	r.Use(sessions.Sessions(sessionName, store))

	h := &handlers{ctx: ctx, deps: d}
	auth := RequireUser(d.Verifier)

	r.GET("/ws", auth, h.ws)
	r.GET("/health", h.health)

	api := r.Group("/api")
	api.GET("/chats/:roomId", auth, h.recentChats)
	api.GET("/stats", h.stats)
	api.GET("/rooms", h.rooms)

	log.Info().Str("module", "adapters.http").Str("mode", cfg.Mode).Msg("router setup")
	return r
}
