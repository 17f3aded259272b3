package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (ctl *Controller) Quests(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	quests, err := ctl.svc.Quests(ctx, viewer(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quests": quests})
}

func (ctl *Controller) MiniQuests(c *gin.Context) {
	questID, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	minis, err := ctl.svc.MiniQuests(ctx, viewer(c), questID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"miniQuests": minis})
}

func (ctl *Controller) ClaimQuest(c *gin.Context) {
	userID, ok := principal(c)
	if !ok {
		return
	}
	questID, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	user, err := ctl.svc.ClaimQuest(ctx, userID, questID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Quest claimed", "xp": user.XP, "level": user.Level})
}

func (ctl *Controller) ClaimMiniQuest(c *gin.Context) {
	userID, ok := principal(c)
	if !ok {
		return
	}
	miniID, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := ctl.svc.ClaimMiniQuest(ctx, userID, miniID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Mini quest completed"})
}

func (ctl *Controller) EcosystemQuests(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	quests, err := ctl.svc.EcosystemQuests(ctx, viewer(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ecosystemQuests": quests})
}

func (ctl *Controller) SetEcosystemTimer(c *gin.Context) {
	userID, ok := principal(c)
	if !ok {
		return
	}
	questID, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	rec, err := ctl.svc.SetEcosystemTimer(ctx, userID, questID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timer": rec.Timer})
}

func (ctl *Controller) ClaimEcosystemQuest(c *gin.Context) {
	userID, ok := principal(c)
	if !ok {
		return
	}
	questID, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	user, err := ctl.svc.ClaimEcosystemQuest(ctx, userID, questID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ecosystem quest claimed", "xp": user.XP, "level": user.Level})
}
