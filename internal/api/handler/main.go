package handler

import (
	"net/http"

	"wavesight/internal/models"
	"wavesight/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo-contrib/pprof"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/do"
)

type Config struct {
	Container  *do.Injector
	Mode       string
	Origins    []string
	// Registerer receives the HTTP metrics; nil means the prometheus default.
	Registerer prometheus.Registerer
}

func New(cfg *Config) (http.Handler, error) {
	r := echo.New()
	r.Pre(middleware.RemoveTrailingSlash())
	if cfg.Mode == "debug" {
		r.Debug = true
		pprof.Register(r)
	}

	r.JSONSerializer = httpx.SegmentJSONSerializer{}
	r.Use(RequestLogger())
	r.Use(middleware.Recover())
	r.Use(RequestTimeout(services.STORAGE_TIMEOUT))
	r.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "wavesight",
		Registerer: cfg.Registerer,
	}))

	r.GET("", func(c echo.Context) error {
		return c.String(http.StatusOK, "🌊")
	})
	r.GET("/metrics", echoprometheus.NewHandler())

	routesAPIv1 := r.Group("/api/v1")
	{
		authentication, err := do.Invoke[*services.Authentication](cfg.Container)
		if err != nil {
			return nil, err
		}
		cors := middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.Origins,
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
			AllowCredentials: true,
			MaxAge:           60 * 60,
		})

		routesAPIv1.Use(cors)
		routesAPIv1.Use(Authn(authentication)) // Authn will NOT terminate unauthenticated request.
		routesAPIv1.GET("", Hello)

		a := groupAccount{cfg.Container}
		routesAPIv1.GET("/me", a.Me)
		routesAPIv1.GET("/earnings", a.Earnings)
		routesAPIv1.GET("/validations/rate-limit", a.RateLimit)

		s := groupSubmission{cfg.Container}
		routesAPIv1.GET("/status/summary", s.StatusSummary)

		routesAPIv1Submission := routesAPIv1.Group("/submissions")
		{
			routesAPIv1Submission.POST("", s.Create)
			routesAPIv1Submission.GET("/eligible", s.Eligible)
			routesAPIv1Submission.GET("/mine", s.Mine)
			routesAPIv1Submission.GET("/:id", s.Show)
			routesAPIv1Submission.POST("/:id/votes", s.Vote)
		}

		rpc := groupRPC{cfg.Container}
		routesAPIv1.POST("/rpc/check_rate_limit", rpc.CheckRateLimit)
		routesAPIv1.POST("/rpc/increment_validation_count", rpc.IncrementValidationCount)
		routesAPIv1.POST("/rpc/cast_trend_vote", rpc.CastTrendVote)

		h := groupHeat{cfg.Container}
		routesAPIv1.POST("/vote-trend", h.Vote)
		routesAPIv1.GET("/vote-trend", h.Show)

		routesAPIv1Admin := routesAPIv1.Group("/admin")
		routesAPIv1Admin.Use(RequireRole(models.RoleServiceRole))
		{
			ad := groupAdmin{cfg.Container}
			routesAPIv1Admin.POST("/submissions/:id/force-reject", ad.ForceReject)
			routesAPIv1Admin.GET("/reconcile", ad.Reconcile)
		}
	}

	return r, nil
}

func Hello(c echo.Context) error {
	return httpx.RestAbort(c, "hello world", nil)
}
