package dash

import "ltvpilot/internal/report"

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type navigateRequest struct {
	Target string `json:"target" binding:"required"`
}

// actionRequest mirrors dispatch.Request minus the command, which
// comes from the bindings table keyed by the URL action name.
type actionRequest struct {
	InitialCapitalUSD *float64 `json:"initial_capital_usd"`
	Confirm           bool     `json:"confirm"`
	AlertID           int      `json:"alert_id"`
	TargetLTVMin      float64  `json:"target_ltv_min"`
	TargetLTVMax      float64  `json:"target_ltv_max"`
}

// viewResponse reports the current view plus the pending notice, which
// is consumed by the read.
type viewResponse struct {
	View     string         `json:"view"`
	Username string         `json:"username,omitempty"`
	Notice   *report.Notice `json:"notice,omitempty"`
}

type actionBindingView struct {
	Action  string `json:"action"`
	Label   string `json:"label"`
	Confirm bool   `json:"confirm"`
}
