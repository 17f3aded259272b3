package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"nexura/services"
	"nexura/utils"
)

type signInRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type walletSignInRequest struct {
	Address      string `json:"address" binding:"required"`
	Signature    string `json:"signature" binding:"required"`
	Message      string `json:"message" binding:"required"`
	ReferrerCode string `json:"referrerCode"`
}

func (ctl *Controller) SignUp(c *gin.Context) {
	var req services.SignUpInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "message": err.Error()})
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	user, err := ctl.svc.SignUp(ctx, req)
	if err != nil {
		respondError(c, err)
		return
	}
	token, ok := ctl.issueTokens(c, user.ID, utils.PrincipalUser)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Sign-up successful", "accessToken": token, "user": user})
}

func (ctl *Controller) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "message": "Check username and password"})
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	user, err := ctl.svc.SignIn(ctx, req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	token, ok := ctl.issueTokens(c, user.ID, utils.PrincipalUser)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Sign-in successful", "accessToken": token, "user": user})
}

// WalletMessage returns the text the wallet must sign
func (ctl *Controller) WalletMessage(c *gin.Context) {
	addr, err := utils.NormalizeWallet(c.Query("address"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": utils.SignInMessage(addr, time.Now().UTC())})
}

func (ctl *Controller) WalletSignIn(c *gin.Context) {
	var req walletSignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "message": err.Error()})
		return
	}
	wallet, err := utils.VerifySignIn(req.Address, req.Signature, req.Message, time.Now())
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, utils.ErrBadMessage) || errors.Is(err, utils.ErrInvalidWallet) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	user, created, err := ctl.svc.WalletSignIn(ctx, wallet, req.ReferrerCode)
	if err != nil {
		respondError(c, err)
		return
	}
	token, ok := ctl.issueTokens(c, user.ID, utils.PrincipalUser)
	if !ok {
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"accessToken": token, "user": user, "created": created})
}

func (ctl *Controller) Profile(c *gin.Context) {
	id, ok := principal(c)
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	profile, err := ctl.svc.Profile(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (ctl *Controller) CheckIn(c *gin.Context) {
	id, ok := principal(c)
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	user, err := ctl.svc.CheckIn(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"streak": user.Streak, "longestStreak": user.LongestStreak, "lastCheckIn": user.LastCheckIn})
}

func (ctl *Controller) MintBadge(c *gin.Context) {
	id, ok := principal(c)
	if !ok {
		return
	}
	level, err := strconv.Atoi(c.Param("level"))
	if err != nil {
		badRequest(c, "invalid level")
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := ctl.svc.MintBadge(ctx, id, level); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Badge mint authorized", "level": level})
}

func (ctl *Controller) ReferralInfo(c *gin.Context) {
	id, ok := principal(c)
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	info, err := ctl.svc.ReferralInfo(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (ctl *Controller) ClaimReferralReward(c *gin.Context) {
	id, ok := principal(c)
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	user, err := ctl.svc.ClaimReferralReward(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Referral reward claimed", "trustEarned": user.TrustEarned})
}

func (ctl *Controller) AllowRefRewardClaim(c *gin.Context) {
	id, ok := principal(c)
	if !ok {
		return
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := ctl.svc.AllowRefRewardClaim(ctx, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Referral reward claim authorized"})
}

func (ctl *Controller) Leaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(strings.TrimSpace(c.Query("limit")))
	ctx, cancel := reqCtx(c)
	defer cancel()

	entries, err := ctl.svc.Leaderboard(ctx, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": entries})
}
