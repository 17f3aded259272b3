package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"nexura/internal/storage"
	"nexura/models"
	"nexura/services"
	"nexura/utils"
)

type projectSignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type uploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

func (ctl *Controller) ProjectSignUp(c *gin.Context) {
	var req services.ProjectSignUpInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "message": err.Error()})
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	project, err := ctl.svc.ProjectSignUp(ctx, req)
	if err != nil {
		respondError(c, err)
		return
	}
	token, ok := ctl.issueTokens(c, project.ID, utils.PrincipalProject)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"accessToken": token, "project": project})
}

func (ctl *Controller) ProjectSignIn(c *gin.Context) {
	var req projectSignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "message": "Check email and password format"})
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	project, err := ctl.svc.ProjectSignIn(ctx, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	token, ok := ctl.issueTokens(c, project.ID, utils.PrincipalProject)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessToken": token, "project": project})
}

func (ctl *Controller) ProjectProfile(c *gin.Context) {
	id, ok := principal(c)
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	project, err := ctl.svc.Project(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (ctl *Controller) ProjectCampaigns(c *gin.Context) {
	id, ok := principal(c)
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	campaigns, err := ctl.svc.ProjectCampaigns(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaigns": campaigns})
}

// UploadURL presigns a cover image upload for the calling project
func (ctl *Controller) UploadURL(c *gin.Context) {
	id, ok := principal(c)
	if !ok {
		return
	}
	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "message": err.Error()})
		return
	}
	if ctl.uploader == nil {
		respondError(c, storage.ErrNotConfigured)
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	upload, err := ctl.uploader.CoverUploadURL(ctx, id.Hex(), req.ContentType)
	if errors.Is(err, storage.ErrContentType) {
		badRequest(c, err.Error())
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, upload)
}

func (ctl *Controller) CreateCampaign(c *gin.Context) {
	id, ok := principal(c)
	if !ok {
		return
	}
	var req services.CampaignInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "message": err.Error()})
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	campaign, err := ctl.svc.CreateCampaign(ctx, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, campaign)
}

func (ctl *Controller) UpdateCampaign(c *gin.Context) {
	projectID, ok := principal(c)
	if !ok {
		return
	}
	campaignID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.CampaignUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "message": err.Error()})
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	campaign, err := ctl.svc.UpdateCampaign(ctx, projectID, campaignID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

func (ctl *Controller) CloseCampaign(c *gin.Context) {
	projectID, ok := principal(c)
	if !ok {
		return
	}
	campaignID, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := ctl.svc.CloseCampaign(ctx, projectID, campaignID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Campaign closed"})
}

func (ctl *Controller) AddCampaignQuest(c *gin.Context) {
	projectID, ok := principal(c)
	if !ok {
		return
	}
	campaignID, ok := paramID(c, "id")
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

	quest, err := ctl.svc.AddCampaignQuest(ctx, projectID, campaignID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, quest)
}
