package routes

import (
	"github.com/gin-gonic/gin"

	"nexura/middlewares"
	"nexura/utils"
)

// SetupUserRoutes mounts /user: accounts, profile, referrals and socials
func SetupUserRoutes(router *gin.Engine, d Deps) {
	ctl := d.Controller
	user := router.Group("/user")
	{
		user.POST("/sign-up", ctl.SignUp)
		user.POST("/sign-in", ctl.SignIn)
		user.GET("/wallet/message", ctl.WalletMessage)
		user.POST("/wallet/sign-in", ctl.WalletSignIn)

		// OAuth providers redirect here without a bearer token; the state
		// parameter identifies the user
		user.GET("/discord/callback", ctl.DiscordCallback)
		user.GET("/x/callback", ctl.XCallback)

		user.GET("/profile", with(d.guard(utils.PrincipalUser, middlewares.ResourceProfile, "read"), ctl.Profile)...)
		user.POST("/check-in", with(d.guard(utils.PrincipalUser, middlewares.ResourceProfile, "write"), ctl.CheckIn)...)
		user.POST("/mint-badge/:level", d.claim(middlewares.ResourceProfile, "mint", ctl.MintBadge)...)
		user.GET("/discord/connect", with(d.guard(utils.PrincipalUser, middlewares.ResourceProfile, "write"), ctl.DiscordConnect)...)
		user.GET("/x/connect", with(d.guard(utils.PrincipalUser, middlewares.ResourceProfile, "write"), ctl.XConnect)...)

		user.GET("/referral-info", with(d.guard(utils.PrincipalUser, middlewares.ResourceReferral, "read"), ctl.ReferralInfo)...)
		user.POST("/claim-referral-reward", d.claim(middlewares.ResourceReferral, "claim", ctl.ClaimReferralReward)...)
		user.POST("/allow-referral-claim", d.claim(middlewares.ResourceReferral, "allow", ctl.AllowRefRewardClaim)...)
	}
}

// SetupProjectRoutes mounts /project: project accounts and campaign management
func SetupProjectRoutes(router *gin.Engine, d Deps) {
	ctl := d.Controller
	project := router.Group("/project")
	{
		project.POST("/sign-up", ctl.ProjectSignUp)
		project.POST("/sign-in", ctl.ProjectSignIn)
		project.GET("/profile", with(d.guard(utils.PrincipalProject, middlewares.ResourceProject, "read"), ctl.ProjectProfile)...)
		project.GET("/campaigns", with(d.guard(utils.PrincipalProject, middlewares.ResourceProject, "read"), ctl.ProjectCampaigns)...)
		project.POST("/upload-url", with(d.guard(utils.PrincipalProject, middlewares.ResourceUpload, "write"), ctl.UploadURL)...)
	}
}
