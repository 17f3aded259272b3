package routes

import (
	"github.com/gin-gonic/gin"

	"nexura/middlewares"
	"nexura/utils"
)

// SetupCampaignRoutes mounts /campaign for both projects and users
func SetupCampaignRoutes(router *gin.Engine, d Deps) {
	ctl := d.Controller
	campaign := router.Group("/campaign")
	{
		campaign.GET("", middlewares.AuthenticateOptional(), ctl.Campaigns)
		campaign.GET("/:id", middlewares.AuthenticateOptional(), ctl.Campaign)

		write := d.guard(utils.PrincipalProject, middlewares.ResourceCampaign, "write")
		campaign.POST("/create", with(write, ctl.CreateCampaign)...)
		campaign.PATCH("/:id", with(write, ctl.UpdateCampaign)...)
		campaign.POST("/:id/close", with(write, ctl.CloseCampaign)...)
		campaign.POST("/:id/quests", with(write, ctl.AddCampaignQuest)...)

		campaign.POST("/:id/join", d.claim(middlewares.ResourceCampaign, "join", ctl.JoinCampaign)...)
		campaign.POST("/quests/:questId/perform", d.claim(middlewares.ResourceCampaign, "join", ctl.PerformCampaignQuest)...)
		campaign.POST("/:id/claim", d.claim(middlewares.ResourceCampaign, "claim", ctl.ClaimCampaignRewards)...)
	}
}

// SetupQuestRoutes mounts /quest and /ecosystem-quests
func SetupQuestRoutes(router *gin.Engine, d Deps) {
	ctl := d.Controller
	quest := router.Group("/quest")
	{
		quest.GET("", middlewares.AuthenticateOptional(), ctl.Quests)
		quest.GET("/:id/mini-quests", middlewares.AuthenticateOptional(), ctl.MiniQuests)
		quest.POST("/:id/claim", d.claim(middlewares.ResourceQuest, "claim", ctl.ClaimQuest)...)
		quest.POST("/mini/:id/claim", d.claim(middlewares.ResourceQuest, "claim", ctl.ClaimMiniQuest)...)
	}

	eco := router.Group("/ecosystem-quests")
	{
		eco.GET("", middlewares.AuthenticateOptional(), ctl.EcosystemQuests)
		eco.POST("/:id/set-timer", with(d.guard(utils.PrincipalUser, middlewares.ResourceEcosystem, "claim"), ctl.SetEcosystemTimer)...)
		eco.POST("/:id/claim", d.claim(middlewares.ResourceEcosystem, "claim", ctl.ClaimEcosystemQuest)...)
	}
}
