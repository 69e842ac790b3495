package api

import (
	"log"
	stdhttp "net/http"

	"taxibot/internal/bot"
	intconfig "taxibot/internal/config"
	h "taxibot/internal/http/handlers"
	"taxibot/internal/http/middleware"
	"taxibot/internal/services"

	"github.com/gin-gonic/gin"
)

// Deps are the services behind the HTTP surface. Updates is nil unless the
// bot runs in webhook mode.
type Deps struct {
	Admin   services.AdminService
	Docs    services.DocsService
	Finance services.FinanceService
	Updates bot.Submitter
}

func NewRouter(env intconfig.Env, deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSAllowedOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	secret := []byte(env.JWTSecret)

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", h.DBCheck)
		api.GET("/routes", h.Routes)

		auth := api.Group("/auth")
		auth.POST("/login", h.Login(env.AdminPasswordHash, secret))

		admin := api.Group("/admin", middleware.AuthRequired(secret), middleware.RequireRoles(middleware.RoleAdmin))
		admin.GET("/trips", h.ListTrips(deps.Admin))
		admin.POST("/trips", h.CreateTrip(deps.Admin))
		admin.DELETE("/trips/:id", h.DeleteTrip(deps.Admin))
		admin.GET("/trips/:id/passengers", h.TripPassengers(deps.Admin))
		admin.GET("/trips/:id/passengers.pdf", h.TripPassengersPDF(deps.Docs))
		admin.POST("/announce", h.Announce(deps.Admin))
		admin.GET("/finance/average", h.AverageProfit(deps.Finance))
		admin.PUT("/users/:id/ban", h.SetUserBanned(deps.Admin, true))
		admin.DELETE("/users/:id/ban", h.SetUserBanned(deps.Admin, false))

		if deps.Updates != nil {
			api.POST("/telegram/webhook", h.TelegramWebhook(env.TelegramWebhookSecret, deps.Updates))
		}
	}

	h.SetRouter(r)
	return r
}
