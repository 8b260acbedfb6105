package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	silentauth "github.com/silentauth/silentauth"
)

const (
	cookieAccess  = "access_token"
	cookieRefresh = "refresh_token"

	// The access cookie rides on every request; the refresh cookie is
	// scoped to the auth routes so it never leaves this surface.
	accessCookiePath  = "/"
	refreshCookiePath = "/auth"
)

// Options configures the HTTP surface around an engine.
type Options struct {
	// AccessTTL and RefreshTTL bound cookie max-age. They should match the
	// engine's token config.
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// SecureCookies marks auth cookies Secure. Disable only for local
	// development over plain HTTP.
	SecureCookies bool
	// MetricsHandler, when set, is mounted at GET /metrics.
	MetricsHandler http.Handler
}

// Handler owns the gin routes for one engine.
type Handler struct {
	engine *silentauth.Engine
	opts   Options
}

// NewHandler builds the HTTP surface for engine.
func NewHandler(engine *silentauth.Engine, opts Options) *Handler {
	return &Handler{engine: engine, opts: opts}
}

// Register mounts all routes on router.
func (h *Handler) Register(router *gin.Engine) {
	router.GET("/healthz", h.healthz)
	if h.opts.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(h.opts.MetricsHandler))
	}

	auth := router.Group("/auth")
	auth.POST("/register", h.register)
	auth.POST("/login", h.login)
	auth.POST("/refresh", h.refresh)
	auth.POST("/logout", h.logout)
	auth.GET("/me", h.me)
}

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (h *Handler) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.engine.Register(c.Request.Context(), req.Email, req.Password, req.PasswordConfirm)
	if err != nil {
		switch {
		case errors.Is(err, silentauth.ErrEmailExists):
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		case errors.Is(err, silentauth.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": userResponse{ID: user.UserID, Email: user.Email}})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, pair, err := h.engine.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, silentauth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	h.setAuthCookies(c, pair)
	c.JSON(http.StatusOK, gin.H{"user": userResponse{ID: user.UserID, Email: user.Email}})
}

func (h *Handler) refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(cookieRefresh)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "refresh token missing"})
		return
	}

	pair, err := h.engine.Rotate(c.Request.Context(), refreshToken)
	if err != nil {
		if errors.Is(err, silentauth.ErrRevocationUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "try again later"})
			return
		}
		// Malformed, expired, wrong kind, and revoked all collapse to one
		// response so the client learns nothing about why.
		h.clearAuthCookies(c)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	h.setAuthCookies(c, pair)
	c.JSON(http.StatusOK, gin.H{"message": "tokens refreshed"})
}

func (h *Handler) logout(c *gin.Context) {
	refreshToken, err := c.Cookie(cookieRefresh)
	if err == nil && refreshToken != "" {
		if err := h.engine.Logout(c.Request.Context(), refreshToken); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "try again later"})
			return
		}
	}

	h.clearAuthCookies(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// me is the silent session endpoint. It always answers 200: the payload
// reports whether a session could be established, and a successful refresh
// fallback re-issues cookies transparently.
func (h *Handler) me(c *gin.Context) {
	accessToken, _ := c.Cookie(cookieAccess)
	refreshToken, _ := c.Cookie(cookieRefresh)

	result := h.engine.Recover(c.Request.Context(), accessToken, refreshToken)
	if !result.Authenticated {
		c.JSON(http.StatusOK, gin.H{"isAuthenticated": false})
		return
	}

	if result.Rotated && result.Pair != nil {
		h.setAuthCookies(c, *result.Pair)
	}

	c.JSON(http.StatusOK, gin.H{
		"isAuthenticated": true,
		"user":            userResponse{ID: result.User.UserID, Email: result.User.Email},
	})
}

func (h *Handler) setAuthCookies(c *gin.Context, pair silentauth.TokenPair) {
	c.SetCookie(cookieAccess, pair.AccessToken, int(h.opts.AccessTTL.Seconds()), accessCookiePath, "", h.opts.SecureCookies, true)
	c.SetCookie(cookieRefresh, pair.RefreshToken, int(h.opts.RefreshTTL.Seconds()), refreshCookiePath, "", h.opts.SecureCookies, true)
}

func (h *Handler) clearAuthCookies(c *gin.Context) {
	c.SetCookie(cookieAccess, "", -1, accessCookiePath, "", h.opts.SecureCookies, true)
	c.SetCookie(cookieRefresh, "", -1, refreshCookiePath, "", h.opts.SecureCookies, true)
}
