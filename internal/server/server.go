package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/teamgate/teamgate/internal/config"
	obsmetrics "github.com/teamgate/teamgate/internal/observability/metrics"
	"github.com/teamgate/teamgate/internal/store"
	userdomain "github.com/teamgate/teamgate/internal/user/domain"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	log    *zap.Logger
	store  *store.Store
	users  userdomain.Repository
}

type ServerParams struct {
	fx.In

	Gin   *gin.Engine
	Cfg   config.Config
	Log   *zap.Logger
	Store *store.Store
	Users userdomain.Repository
}

func NewEngine(log *zap.Logger, m *obsmetrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestMeta())
	r.Use(RequestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))

	return r
}

func registerGin(log *zap.Logger, m *obsmetrics.Metrics) *gin.Engine {
	return NewEngine(log, m)
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine: p.Gin,
		cfg:    p.Cfg,
		log:    p.Log.Named("server"),
		store:  p.Store,
		users:  p.Users,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	v1 := s.engine.Group("/v1")
	v1.Use(s.AuthRequired())

	v1.GET("/me", s.GetMe)
	v1.PATCH("/me", s.UpdateMe)
	v1.DELETE("/me", s.DeleteMe)

	v1.POST("/users", s.CreateUser)

	v1.POST("/teams", s.CreateTeam)
	v1.GET("/teams", s.ListTeams)
	v1.GET("/teams/:id", s.GetTeam)
	v1.PATCH("/teams/:id", s.UpdateTeam)
	v1.DELETE("/teams/:id", s.DeleteTeam)
	v1.PUT("/teams/:id/billing", s.UpdateTeamBilling)

	v1.GET("/teams/:id/members", s.ListTeamMembers)
	v1.POST("/teams/:id/members", s.AddTeamMember)
	v1.PATCH("/teams/:id/members/:user_id", s.ChangeTeamMemberRole)
	v1.DELETE("/teams/:id/members/:user_id", s.RemoveTeamMember)

	v1.GET("/teams/:id/invitations", s.ListInvitations)
	v1.POST("/teams/:id/invitations", s.CreateInvitation)
	v1.POST("/invitations/:id/revoke", s.RevokeInvitation)
	v1.POST("/invitations/:id/redeem", s.RedeemInvitation)

	v1.GET("/teams/:id/activity", s.ListActivity)
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server exited", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
