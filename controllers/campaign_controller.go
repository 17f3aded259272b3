package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (ctl *Controller) Campaigns(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	campaigns, err := ctl.svc.Campaigns(ctx, viewer(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaigns": campaigns})
}

func (ctl *Controller) Campaign(c *gin.Context) {
	campaignID, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	campaign, quests, err := ctl.svc.Campaign(ctx, viewer(c), campaignID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaign": campaign, "quests": quests})
}

func (ctl *Controller) JoinCampaign(c *gin.Context) {
	userID, ok := principal(c)
	if !ok {
		return
	}
	campaignID, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := ctl.svc.JoinCampaign(ctx, userID, campaignID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Joined campaign"})
}

func (ctl *Controller) PerformCampaignQuest(c *gin.Context) {
	userID, ok := principal(c)
	if !ok {
		return
	}
	questID, ok := paramID(c, "questId")
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	progress, err := ctl.svc.PerformCampaignQuest(ctx, userID, questID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Quest completed", "progress": progress})
}

func (ctl *Controller) ClaimCampaignRewards(c *gin.Context) {
	userID, ok := principal(c)
	if !ok {
		return
	}
	campaignID, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	user, err := ctl.svc.ClaimCampaignRewards(ctx, userID, campaignID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Campaign rewards claimed", "xp": user.XP, "level": user.Level, "trustEarned": user.TrustEarned})
}
