package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tazhibayda/mytinerary/internal/domain"
	applog "github.com/tazhibayda/mytinerary/internal/log"
	"github.com/tazhibayda/mytinerary/internal/metrics"
	"github.com/tazhibayda/mytinerary/internal/oauth"
	"github.com/tazhibayda/mytinerary/internal/security"
)

// GoogleStart godoc
// @Summary Start google sign-in
// @Tags oauth
// @Success 302
// @Router /user/google [get]
func (h *Handler) GoogleStart(c *gin.Context) {
	if h.Google == nil {
		c.JSON(http.StatusNotFound, errorResp{Error: "google login disabled"})
		return
	}
	nonce, err := security.NewNonce()
	if err == nil {
		err = h.States.SaveOAuthState(c.Request.Context(), nonce, oauth.StateTTL)
	}
	if err != nil {
		h.oauthFail(c, "state_store", err)
		return
	}
	c.Redirect(http.StatusFound, h.Google.AuthURL(h.Google.MakeState(nonce)))
}

// GoogleCallback godoc
// @Summary Google redirect target; forwards the browser to the frontend with a token
// @Tags oauth
// @Param state query string true "state"
// @Param code query string true "authorization code"
// @Success 302
// @Router /user/google/redirect [get]
func (h *Handler) GoogleCallback(c *gin.Context) {
	if h.Google == nil {
		c.JSON(http.StatusNotFound, errorResp{Error: "google login disabled"})
		return
	}
	ctx := c.Request.Context()

	if e := c.Query("error"); e != "" {
		h.oauthFail(c, "denied", nil)
		return
	}
	raw, ok := h.Google.VerifyState(c.Query("state"))
	if !ok {
		h.oauthFail(c, "bad_state", nil)
		return
	}
	if err := h.States.ConsumeOAuthState(ctx, raw); err != nil {
		h.oauthFail(c, "bad_state", err)
		return
	}
	code := c.Query("code")
	if code == "" {
		h.oauthFail(c, "no_code", nil)
		return
	}

	var p *oauth.Profile
	err := withSpan(ctx, "oauth.google.exchange", func(ctx context.Context) error {
		var err error
		p, err = h.Google.Exchange(ctx, code)
		return err
	})
	if err != nil {
		h.oauthFail(c, "exchange", err)
		return
	}

	first := p.GivenName
	if first == "" {
		first = p.Name
	}
	res, err := h.Auth.FederatedLogin(ctx, domain.FederatedProfile{
		Email:         p.Email,
		EmailVerified: p.EmailVerified,
		FirstName:     first,
		LastName:      p.FamilyName,
		UserImage:     p.Picture,
	})
	if err != nil {
		h.oauthFail(c, "login", err)
		return
	}
	c.Redirect(http.StatusFound, h.FrontendURL+"/logged_in/"+res.Token)
}

func (h *Handler) oauthFail(c *gin.Context, reason string, err error) {
	metrics.Auth("federated", reason)
	fields := []zap.Field{zap.String("reason", reason)}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	applog.WithDD(c.Request.Context(), h.Log).Warn("google login failed", fields...)
	c.Redirect(http.StatusFound, h.FailureURL)
}
