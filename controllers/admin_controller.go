package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"nexura/services"
	"nexura/utils"
)

type adminSignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type inviteRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type acceptInviteRequest struct {
	Token    string `json:"token" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

type allocateRequest struct {
	XP    int     `json:"xp" binding:"gte=0"`
	Trust float64 `json:"trust" binding:"gte=0"`
}

func (ctl *Controller) AdminSignIn(c *gin.Context) {
	var req adminSignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "message": "Check email and password format"})
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	admin, err := ctl.svc.AdminSignIn(ctx, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	token, ok := ctl.issueTokens(c, admin.ID, utils.PrincipalAdmin)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessToken": token, "admin": admin})
}

func (ctl *Controller) InviteAdmin(c *gin.Context) {
	adminID, ok := principal(c)
	if !ok {
		return
	}
	var req inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "message": err.Error()})
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	inv, err := ctl.svc.InviteAdmin(ctx, adminID, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Invite sent", "email": inv.Email, "expiresAt": inv.ExpiresAt})
}

func (ctl *Controller) AcceptInvite(c *gin.Context) {
	var req acceptInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "message": err.Error()})
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	admin, err := ctl.svc.AcceptInvite(ctx, req.Token, req.Name, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	token, ok := ctl.issueTokens(c, admin.ID, utils.PrincipalAdmin)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"accessToken": token, "admin": admin})
}

func (ctl *Controller) CreateQuest(c *gin.Context) {
	var req services.QuestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "message": err.Error()})
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	quest, err := ctl.svc.CreateQuest(ctx, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, quest)
}

func (ctl *Controller) AddMiniQuest(c *gin.Context) {
	questID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.TaskInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "message": err.Error()})
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	mini, err := ctl.svc.AddMiniQuest(ctx, questID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mini)
}

func (ctl *Controller) CreateEcosystemQuest(c *gin.Context) {
	var req services.EcosystemQuestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "message": err.Error()})
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	quest, err := ctl.svc.CreateEcosystemQuest(ctx, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, quest)
}

func (ctl *Controller) AllocateXP(c *gin.Context) {
	projectID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req allocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "message": err.Error()})
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	project, err := ctl.svc.AllocateXP(ctx, projectID, req.XP, req.Trust)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (ctl *Controller) RelayActions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	ctx, cancel := reqCtx(c)
	defer cancel()

	actions, err := ctl.svc.RelayActions(ctx, c.Query("status"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"actions": actions})
}

func (ctl *Controller) RetryRelayAction(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	action, err := ctl.svc.RetryRelayAction(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, action)
}

func (ctl *Controller) SyncReferrals(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	n, err := ctl.svc.SyncReferrals(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}
