package controllers

import (
	"net/http"
	"time"

	"civicreport-be/middlewares"
	"civicreport-be/services"
	authUtils "civicreport-be/utils"

	"github.com/gin-gonic/gin"
)

// CookieSettings controls the auth_token cookie set on login.
type CookieSettings struct {
	Domain     string
	Production bool
}

type AuthController struct {
	accounts *services.AccountService
	secret   string
	ttl      time.Duration
	cookie   CookieSettings
}

func NewAuthController(accounts *services.AccountService, secret string, ttl time.Duration, cookie CookieSettings) *AuthController {
	return &AuthController{accounts: accounts, secret: secret, ttl: ttl, cookie: cookie}
}

// Register handles resident sign-up
func (ac *AuthController) Register(c *gin.Context) {
	var input services.Registration
	if !bindJSON(c, &input) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := ac.accounts.Register(ctx, input)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := authUtils.GenerateToken(ac.secret, services.UserIdentity(user.ID), ac.ttl)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":      "User registered successfully",
		"user":         user,
		"access_token": token,
	})
}

// Login handles resident login
func (ac *AuthController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &input) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := ac.accounts.Login(ctx, input.Email, input.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := authUtils.GenerateToken(ac.secret, services.UserIdentity(user.ID), ac.ttl)
	if err != nil {
		respondError(c, err)
		return
	}
	ac.setCookie(c, token)

	c.JSON(http.StatusOK, gin.H{
		"message":      "Login successful",
		"user":         user,
		"access_token": token,
	})
}

// AdminLogin authenticates a dedicated admin account
func (ac *AuthController) AdminLogin(c *gin.Context) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &input) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	admin, err := ac.accounts.AdminLogin(ctx, input.Username, input.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := authUtils.GenerateToken(ac.secret, services.AdminIdentity(admin.ID), ac.ttl)
	if err != nil {
		respondError(c, err)
		return
	}
	ac.setCookie(c, token)

	c.JSON(http.StatusOK, gin.H{
		"message": "Admin login successful",
		"admin": gin.H{
			"id":       admin.ID,
			"username": admin.Username,
			"email":    admin.Email,
		},
		"access_token": token,
	})
}

// GetMe returns the authenticated account
func (ac *AuthController) GetMe(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	profile, err := ac.accounts.Me(ctx, p)
	if err != nil {
		respondError(c, err)
		return
	}
	if profile.Admin != nil {
		c.JSON(http.StatusOK, gin.H{"admin": profile.Admin})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": profile.User})
}

// UpdateMe lets a resident change their own name
func (ac *AuthController) UpdateMe(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	var input services.ProfileUpdate
	if !bindJSON(c, &input) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := ac.accounts.UpdateProfile(ctx, p, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

// Logout clears the auth_token cookie
func (ac *AuthController) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(middlewares.AuthCookie, "", -1, "/", ac.cookieDomain(), ac.cookie.Production, true)
	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

func (ac *AuthController) cookieDomain() string {
	// Cross-origin cookies in production must not pin a domain
	if ac.cookie.Production {
		return ""
	}
	return ac.cookie.Domain
}

func (ac *AuthController) setCookie(c *gin.Context, token string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middlewares.AuthCookie,
		Value:    token,
		MaxAge:   int(ac.ttl.Seconds()),
		Path:     "/",
		Domain:   ac.cookieDomain(),
		Secure:   ac.cookie.Production,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})
}
