package api

import (
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/nuqta-lab/mooda/docs"
	"github.com/nuqta-lab/mooda/internal/api/handler"
	"github.com/nuqta-lab/mooda/internal/api/middleware"
	"github.com/nuqta-lab/mooda/internal/auth"
	"github.com/nuqta-lab/mooda/internal/model"
)

// NewRouter 组装全部路由与中间件
func NewRouter(h *handler.Handler, verifier *auth.Verifier, mode string) *gin.Engine {
	gin.SetMode(mode)
	registerValidations()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	r.Use(otelgin.Middleware("mooda-backend"))
	r.Use(auth.Identify(verifier))

	// SSE 响应不压缩，其余接口走 gzip
	compressed := r.Group("/", gzip.Gzip(gzip.DefaultCompression))

	v1 := compressed.Group("/api/v1")
	{
		v1.POST("/mood", h.SubmitMood)
		v1.GET("/types", h.MoodTypes)
		v1.GET("/me/moods", h.MyMoods)
		v1.GET("/share/today.svg", h.ShareToday)

		stats := v1.Group("/stats")
		{
			stats.GET("/today", h.StatsToday)
			stats.GET("/live", h.StatsLive)
			stats.GET("/day/:date", h.StatsByDay)
			stats.GET("/range/:period", h.StatsRange)
			stats.GET("/leaderboard", h.Leaderboard)
		}
	}

	sseLimiter := middleware.NewPerIPLimiter(0.5, 6)
	sse := r.Group("/api/v1/sse", sseLimiter.Handle())
	{
		sse.GET("/live", h.SSELive)
		sse.GET("/public", h.SSEPublic)
		sse.GET("/subscribers", h.Subscribers)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	return r
}

// registerValidations 给 binding 注册 moodtype 规则
func registerValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("moodtype", func(fl validator.FieldLevel) bool {
			_, ok := model.ParseMoodType(fl.Field().String())
			return ok
		})
	}
}
