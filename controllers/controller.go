package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"nexura/internal/socials"
	"nexura/internal/storage"
	"nexura/middlewares"
	"nexura/models"
	reporter "nexura/pkg/errors"
	"nexura/pkg/log"
	"nexura/services"
	"nexura/utils"
)

const requestTimeout = 10 * time.Second

// DiscordLinker runs the Discord account link flow
type DiscordLinker interface {
	AuthURL(state string) (string, error)
	Exchange(ctx context.Context, code string) (*models.SocialAccount, error)
}

// XLinker runs the X account link flow with PKCE
type XLinker interface {
	AuthURL(state string) (string, string, error)
	Exchange(ctx context.Context, code, verifier string) (*models.SocialAccount, error)
}

// CoverUploader issues presigned uploads for campaign covers
type CoverUploader interface {
	CoverUploadURL(ctx context.Context, projectID, contentType string) (*storage.Upload, error)
}

// Controller binds HTTP requests to the service layer
type Controller struct {
	svc           *services.Service
	discord       DiscordLinker
	x             XLinker
	uploader      CoverUploader
	secureCookies bool
}

type Options struct {
	Discord  DiscordLinker
	X        XLinker
	Uploader CoverUploader
	// SecureCookies marks auth cookies Secure; enable behind HTTPS
	SecureCookies bool
}

func New(svc *services.Service, opts Options) *Controller {
	return &Controller{
		svc:           svc,
		discord:       opts.Discord,
		x:             opts.X,
		uploader:      opts.Uploader,
		secureCookies: opts.SecureCookies,
	}
}

func reqCtx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// respondError writes business-rule errors with their status and hides
// everything else behind a 500
func respondError(c *gin.Context, err error) {
	if se, ok := services.AsError(err); ok {
		c.JSON(se.Status, gin.H{"error": se.Message})
		return
	}
	if errors.Is(err, socials.ErrNotConfigured) || errors.Is(err, storage.ErrNotConfigured) {
		badRequest(c, err.Error())
		return
	}
	log.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	reporter.Report(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

// principal returns the authenticated id set by middlewares.Authenticate
func principal(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.GetString(middlewares.ContextID))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return primitive.NilObjectID, false
	}
	return id, true
}

// viewer is the optional user behind a request, NilObjectID when anonymous
func viewer(c *gin.Context) primitive.ObjectID {
	id, err := primitive.ObjectIDFromHex(c.GetString(middlewares.ContextID))
	if err != nil {
		return primitive.NilObjectID
	}
	return id
}

func paramID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}

// issueTokens sets the refresh cookie and returns a fresh access token
func (ctl *Controller) issueTokens(c *gin.Context, id primitive.ObjectID, status string) (string, bool) {
	access, err := utils.GenerateJWTToken(id.Hex(), status)
	if err != nil {
		respondError(c, err)
		return "", false
	}
	refresh, err := utils.GenerateRefreshToken(id.Hex(), status)
	if err != nil {
		respondError(c, err)
		return "", false
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookie, refresh, int(utils.RefreshTTL().Seconds()), "/", "", ctl.secureCookies, true)
	return access, true
}

const refreshCookie = "refreshToken"

// Refresh exchanges the refresh cookie for a new access token
func (ctl *Controller) Refresh(c *gin.Context) {
	raw, err := c.Cookie(refreshCookie)
	if err != nil || raw == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing refresh token"})
		return
	}
	claims, err := utils.ParseRefreshToken(raw)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
		return
	}
	access, err := utils.GenerateJWTToken(claims.ID, claims.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessToken": access})
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
