package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"nexura/internal/socials"
	"nexura/models"
	"nexura/utils"
)

const (
	providerDiscord = "discord"
	providerX       = "x"
	xVerifierCookie = "x_pkce_verifier"
)

func (ctl *Controller) DiscordConnect(c *gin.Context) {
	id, ok := principal(c)
	if !ok {
		return
	}
	if ctl.discord == nil {
		respondError(c, socials.ErrNotConfigured)
		return
	}
	state, err := utils.GenerateStateToken(id.Hex(), providerDiscord)
	if err != nil {
		respondError(c, err)
		return
	}
	url, err := ctl.discord.AuthURL(state)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (ctl *Controller) DiscordCallback(c *gin.Context) {
	userID, ok := stateUser(c, providerDiscord)
	if !ok {
		return
	}
	if ctl.discord == nil {
		respondError(c, socials.ErrNotConfigured)
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	acct, err := ctl.discord.Exchange(ctx, c.Query("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	ctl.linkAccount(c, userID, providerDiscord, acct)
}

// XConnect starts the PKCE flow. The verifier rides in an httpOnly cookie
// until the callback.
func (ctl *Controller) XConnect(c *gin.Context) {
	id, ok := principal(c)
	if !ok {
		return
	}
	if ctl.x == nil {
		respondError(c, socials.ErrNotConfigured)
		return
	}
	state, err := utils.GenerateStateToken(id.Hex(), providerX)
	if err != nil {
		respondError(c, err)
		return
	}
	url, verifier, err := ctl.x.AuthURL(state)
	if err != nil {
		respondError(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(xVerifierCookie, verifier, int(utils.StateTTL.Seconds()), "/", "", ctl.secureCookies, true)
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (ctl *Controller) XCallback(c *gin.Context) {
	userID, ok := stateUser(c, providerX)
	if !ok {
		return
	}
	if ctl.x == nil {
		respondError(c, socials.ErrNotConfigured)
		return
	}
	verifier, err := c.Cookie(xVerifierCookie)
	if err != nil || verifier == "" {
		badRequest(c, "missing pkce verifier")
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	acct, err := ctl.x.Exchange(ctx, c.Query("code"), verifier)
	if err != nil {
		respondError(c, err)
		return
	}
	c.SetCookie(xVerifierCookie, "", -1, "/", "", ctl.secureCookies, true)
	ctl.linkAccount(c, userID, providerX, acct)
}

// stateUser resolves the user an OAuth callback belongs to
func stateUser(c *gin.Context, provider string) (primitive.ObjectID, bool) {
	if msg := c.Query("error"); msg != "" {
		badRequest(c, "authorization denied: "+msg)
		return primitive.NilObjectID, false
	}
	if c.Query("code") == "" {
		badRequest(c, "missing code")
		return primitive.NilObjectID, false
	}
	claims, err := utils.ParseStateToken(c.Query("state"), provider)
	if err != nil {
		badRequest(c, "invalid or expired state")
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(claims.ID)
	if err != nil {
		badRequest(c, "invalid or expired state")
		return primitive.NilObjectID, false
	}
	return id, true
}

func (ctl *Controller) linkAccount(c *gin.Context, userID primitive.ObjectID, provider string, acct *models.SocialAccount) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := ctl.svc.ConnectSocial(ctx, userID, provider, *acct); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": provider + " connected", "account": acct})
}
