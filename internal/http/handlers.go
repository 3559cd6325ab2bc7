package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tazhibayda/mytinerary/internal/auth"
	"github.com/tazhibayda/mytinerary/internal/oauth"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// StateStore remembers issued oauth nonces until they are redeemed.
type StateStore interface {
	SaveOAuthState(ctx context.Context, nonce string, ttl time.Duration) error
	ConsumeOAuthState(ctx context.Context, nonce string) error
}

type Handler struct {
	Auth    *auth.Service
	Health  Pinger
	Limiter Limiter
	Log     *zap.Logger

	// Google login is disabled while Google is nil.
	Google      *oauth.GoogleOAuth
	States      StateStore
	FrontendURL string
	FailureURL  string
}

func NewHandler(svc *auth.Service, health Pinger, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Auth: svc, Health: health, Log: logger}
}

// Register godoc
// @Summary Register user
// @Tags user
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param payload body auth.RegisterInput true "new account"
// @Success 201 {object} domain.User
// @Failure 400 {object} errorResp
// @Failure 409 {object} errorResp
// @Failure 422 {object} validationResp
// @Router /user [post]
func (h *Handler) Register(c *gin.Context) {
	var in auth.RegisterInput
	if err := c.ShouldBind(&in); err != nil {
		c.JSON(http.StatusBadRequest, errorResp{Error: "invalid body"})
		return
	}
	u, err := h.Auth.Register(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

// Login godoc
// @Summary Login with email (or username) and password
// @Tags user
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param payload body auth.LoginInput true "credentials"
// @Success 200 {object} auth.LoginResult
// @Failure 401 {object} errorResp
// @Failure 404 {object} errorResp
// @Failure 422 {object} validationResp
// @Failure 429 {object} errorResp
// @Router /user/login [post]
func (h *Handler) Login(c *gin.Context) {
	var in auth.LoginInput
	if err := c.ShouldBind(&in); err != nil {
		c.JSON(http.StatusBadRequest, errorResp{Error: "invalid body"})
		return
	}
	res, err := h.Auth.Login(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Me godoc
// @Summary Current user
// @Tags user
// @Security BearerAuth
// @Produce json
// @Success 200 {object} domain.User
// @Failure 401 {object} errorResp
// @Router /user [get]
func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

// Logout godoc
// @Summary Logout (clears the login flag; the token stays valid until expiry)
// @Tags user
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]bool
// @Failure 401 {object} errorResp
// @Router /user/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	if err := h.Auth.Logout(c.Request.Context(), currentUser(c).ID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type favoriteReq struct {
	ItineraryTitle string `json:"itineraryTitle" form:"itineraryTitle" example:"Three days in Lisbon"`
}

type favoriteResp struct {
	Favorited bool `json:"favorited"`
}

// ToggleFavorite godoc
// @Summary Add or remove an itinerary from favorites
// @Tags favorites
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body favoriteReq true "itinerary"
// @Success 200 {object} favoriteResp
// @Failure 401 {object} errorResp
// @Failure 403 {object} errorResp
// @Failure 422 {object} validationResp
// @Router /user/favoriteItineraries [post]
func (h *Handler) ToggleFavorite(c *gin.Context) {
	var in favoriteReq
	if err := c.ShouldBind(&in); err != nil {
		c.JSON(http.StatusBadRequest, errorResp{Error: "invalid body"})
		return
	}
	on, err := h.Auth.ToggleFavorite(c.Request.Context(), currentUser(c), in.ItineraryTitle)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, favoriteResp{Favorited: on})
}

// Favorites godoc
// @Summary List favorite itineraries
// @Tags favorites
// @Security BearerAuth
// @Produce json
// @Success 200 {array} string
// @Failure 401 {object} errorResp
// @Failure 403 {object} errorResp
// @Router /user/favoriteItineraries [get]
func (h *Handler) Favorites(c *gin.Context) {
	list, err := h.Auth.Favorites(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) Healthz(c *gin.Context) {
	if h.Health != nil {
		if err := h.Health.Ping(c.Request.Context()); err != nil {
			h.Log.Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
