package routes

import (
	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
	"github.com/gin-contrib/cors"
	gorillaws "github.com/gorilla/websocket"

	"nexura/controllers"
	"nexura/internal/cache"
	"nexura/middlewares"
	"nexura/utils"
	"nexura/websocket"
)

// Deps is everything the route table needs
type Deps struct {
	Controller     *controllers.Controller
	Enforcer       *casbin.Enforcer
	Hub            *websocket.Hub
	Upgrader       gorillaws.Upgrader
	Cooldown       *cache.Cooldown
	Limiter        *middlewares.IPLimiter
	AllowedOrigins []string
	MetricsUser    string
	MetricsPass    string
}

// NewRouter builds the gin engine with every route group mounted
func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middlewares.RequestLogger(), middlewares.Monitor())
	if d.Limiter != nil {
		router.Use(d.Limiter.Middleware())
	}
	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	router.GET("/health", controllers.Health)
	router.GET("/metrics", middlewares.MetricsHandler(d.MetricsUser, d.MetricsPass))
	router.POST("/auth/refresh", d.Controller.Refresh)
	router.GET("/leaderboard", d.Controller.Leaderboard)
	if d.Hub != nil {
		router.GET("/ws", d.Hub.Handler(d.Upgrader))
	}

	SetupUserRoutes(router, d)
	SetupProjectRoutes(router, d)
	SetupCampaignRoutes(router, d)
	SetupQuestRoutes(router, d)
	SetupAdminRoutes(router, d)
	return router
}

// guard authenticates kind and checks the route policy
func (d Deps) guard(kind, resource, action string) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		middlewares.Authenticate(kind),
		middlewares.Authorize(d.Enforcer, resource, action),
	}
}

// claim guards a user claim route and applies the per-user cooldown
func (d Deps) claim(resource, action string, h gin.HandlerFunc) []gin.HandlerFunc {
	return append(d.guard(utils.PrincipalUser, resource, action), middlewares.ClaimCooldown(d.Cooldown), h)
}

func with(handlers []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	return append(handlers, h)
}
