package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"
)

// LoginWindow is the rate limiter window for POST /user/login.
const LoginWindow = time.Minute

func NewRouter(h *Handler, service string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(gintrace.Middleware(service))
	r.Use(Metrics())
	r.Use(AccessLog(h.Log))

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	user := r.Group("/user")
	{
		user.POST("", h.Register)
		user.POST("/login", RateLimit(h.Limiter, "login", h.Log), h.Login)
		user.GET("/google", h.GoogleStart)
		user.GET("/google/redirect", h.GoogleCallback)

		authed := user.Group("", AuthJWT(h.Auth))
		authed.GET("", h.Me)
		authed.POST("/logout", h.Logout)

		priv := authed.Group("", RequireLoggedIn())
		priv.POST("/favoriteItineraries", h.ToggleFavorite)
		priv.GET("/favoriteItineraries", h.Favorites)
	}
	return r
}
