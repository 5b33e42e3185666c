package dash

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"ltvpilot/internal/bindings"
	"ltvpilot/internal/controller"
	"ltvpilot/internal/dispatch"
	"ltvpilot/internal/gateway/strategy"
	"ltvpilot/internal/report"
	"ltvpilot/internal/session"
	"ltvpilot/internal/view"
	"ltvpilot/internal/visual"
)

// PositionsAPI is the on-demand read surface beyond the polled feeds.
type PositionsAPI interface {
	EarnPositions(ctx context.Context) ([]strategy.EarnPosition, error)
	LoanPositions(ctx context.Context) ([]strategy.LoanPosition, error)
}

// Router wires the dashboard endpoints to the controller stack.
type Router struct {
	Sessions   *session.Manager
	Views      *view.Router
	State      *controller.Controller
	Dispatcher *dispatch.Dispatcher
	Bindings   *bindings.Registry
	Reporter   *report.Reporter
	Positions  PositionsAPI

	nowFn func() time.Time
}

func NewRouter(sessions *session.Manager, views *view.Router, state *controller.Controller,
	dispatcher *dispatch.Dispatcher, table *bindings.Registry, reporter *report.Reporter,
	positions PositionsAPI) *Router {
	return &Router{
		Sessions:   sessions,
		Views:      views,
		State:      state,
		Dispatcher: dispatcher,
		Bindings:   table,
		Reporter:   reporter,
		Positions:  positions,
		nowFn:      time.Now,
	}
}

// Register mounts the API under the given group.
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.GET("/view", r.handleView)
	group.POST("/view", r.handleNavigate)
	group.POST("/session/login", r.handleLogin)
	group.POST("/session/register", r.handleRegister)
	group.POST("/session/logout", r.handleLogout)

	group.GET("/dashboard", r.requireSession, r.handleDashboard)
	group.GET("/dashboard/gauge", r.requireSession, r.handleGauge)
	group.GET("/positions/earn", r.requireSession, r.handleEarnPositions)
	group.GET("/positions/loan", r.requireSession, r.handleLoanPositions)
	group.GET("/actions", r.requireSession, r.handleListActions)
	group.POST("/actions/:name", r.requireSession, r.handleAction)
}

func (r *Router) requireSession(c *gin.Context) {
	if !r.Sessions.Active() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	c.Next()
}

func (r *Router) viewPayload(consumeNotice bool) viewResponse {
	resp := viewResponse{
		View:     r.Views.Current().String(),
		Username: r.Sessions.Username(),
	}
	if notice := r.Reporter.Latest(); notice != nil {
		resp.Notice = notice
		if consumeNotice {
			r.Reporter.Clear()
		}
	}
	return resp
}

func (r *Router) handleView(c *gin.Context) {
	c.JSON(http.StatusOK, r.viewPayload(true))
}

// handleNavigate serves the user-intent transitions: opening the
// registration form and cancelling back to login. Everything else goes
// through the session endpoints.
func (r *Router) handleNavigate(c *gin.Context) {
	var req navigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target required"})
		return
	}
	var target view.State
	switch strings.ToLower(strings.TrimSpace(req.Target)) {
	case "login":
		target = view.StateLogin
	case "register":
		target = view.StateRegister
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown view target"})
		return
	}
	if err := r.Views.To(target); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, r.viewPayload(false))
}

func (r *Router) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}
	if err := r.Sessions.Login(c.Request.Context(), req.Username, req.Password); err != nil {
		c.JSON(http.StatusUnauthorized, r.viewPayload(true))
		return
	}
	c.JSON(http.StatusOK, r.viewPayload(true))
}

func (r *Router) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username, email and password required"})
		return
	}
	if err := r.Sessions.Register(c.Request.Context(), req.Username, req.Email, req.Password); err != nil {
		c.JSON(http.StatusBadRequest, r.viewPayload(true))
		return
	}
	c.JSON(http.StatusOK, r.viewPayload(true))
}

func (r *Router) handleLogout(c *gin.Context) {
	if err := r.Sessions.Logout(); err != nil {
		// Credentials are already cleared from memory; the stale row
		// is only a disk artifact.
		r.Reporter.Diagnostic("logout cleanup error: %v", err)
	}
	c.JSON(http.StatusOK, r.viewPayload(true))
}

func (r *Router) handleDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, r.State.Display(r.nowFn()))
}

func (r *Router) handleGauge(c *gin.Context) {
	html, err := visual.GaugeHTML(r.State.LTVPct())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "gauge rendering failed"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

func (r *Router) handleEarnPositions(c *gin.Context) {
	positions, err := r.Positions.EarnPositions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": strategy.UserMessage(err, "Failed to load earn positions")})
		return
	}
	c.JSON(http.StatusOK, gin.H{"positions": positions})
}

func (r *Router) handleLoanPositions(c *gin.Context) {
	positions, err := r.Positions.LoanPositions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": strategy.UserMessage(err, "Failed to load loan positions")})
		return
	}
	c.JSON(http.StatusOK, gin.H{"positions": positions})
}

func (r *Router) handleListActions(c *gin.Context) {
	snap := r.Bindings.Snapshot()
	views := make([]actionBindingView, 0, len(snap.Bindings))
	for _, b := range snap.Bindings {
		label := b.Label
		if label == "" {
			label = b.Action
		}
		views = append(views, actionBindingView{Action: b.Action, Label: label, Confirm: b.Confirm})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Action < views[j].Action })
	c.JSON(http.StatusOK, gin.H{"actions": views})
}

func (r *Router) handleAction(c *gin.Context) {
	name := c.Param("name")
	binding, ok := r.Bindings.Resolve(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown action"})
		return
	}
	var body actionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed action payload"})
			return
		}
	}
	req := dispatch.Request{
		Command:           dispatch.Command(binding.Command),
		InitialCapitalUSD: body.InitialCapitalUSD,
		Confirmed:         body.Confirm,
		AlertID:           body.AlertID,
		TargetLTVMin:      body.TargetLTVMin,
		TargetLTVMax:      body.TargetLTVMax,
	}
	err := r.Dispatcher.Dispatch(c.Request.Context(), req)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "ok", "view": r.viewPayload(true)})
	case errors.Is(err, dispatch.ErrConfirmationRequired):
		// Declining (or not yet providing) confirmation is a no-op.
		c.JSON(http.StatusOK, gin.H{"status": "confirmation_required"})
	case errors.Is(err, dispatch.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "view": r.viewPayload(true)})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": strategy.UserMessage(err, "Command failed"), "view": r.viewPayload(true)})
	}
}
