package routes

import (
	"github.com/gin-gonic/gin"

	"nexura/middlewares"
	"nexura/utils"
)

// SetupAdminRoutes sets up admin routes
func SetupAdminRoutes(router *gin.Engine, d Deps) {
	ctl := d.Controller

	// Public admin routes (sign-in and invite acceptance)
	adminPublic := router.Group("/admin")
	{
		adminPublic.POST("/sign-in", ctl.AdminSignIn)
		adminPublic.POST("/accept-invite", ctl.AcceptInvite)
	}

	admin := router.Group("/admin")
	admin.Use(middlewares.Authenticate(utils.PrincipalAdmin))
	{
		admin.POST("/invite", middlewares.Authorize(d.Enforcer, middlewares.ResourceAdmin, "invite"), ctl.InviteAdmin)

		admin.POST("/quests", middlewares.Authorize(d.Enforcer, middlewares.ResourceQuest, "write"), ctl.CreateQuest)
		admin.POST("/quests/:id/mini-quests", middlewares.Authorize(d.Enforcer, middlewares.ResourceQuest, "write"), ctl.AddMiniQuest)
		admin.POST("/ecosystem-quests", middlewares.Authorize(d.Enforcer, middlewares.ResourceEcosystem, "write"), ctl.CreateEcosystemQuest)
		admin.POST("/projects/:id/allocate", middlewares.Authorize(d.Enforcer, middlewares.ResourceProject, "allocate"), ctl.AllocateXP)
		admin.POST("/referrals/sync", middlewares.Authorize(d.Enforcer, middlewares.ResourceAdmin, "sync"), ctl.SyncReferrals)

		admin.GET("/relay-actions", middlewares.Authorize(d.Enforcer, middlewares.ResourceRelay, "read"), ctl.RelayActions)
		admin.POST("/relay-actions/:id/retry", middlewares.Authorize(d.Enforcer, middlewares.ResourceRelay, "retry"), ctl.RetryRelayAction)
	}
}
