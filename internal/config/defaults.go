package config

import "strings"

const (
	defaultAppEnv       = "dev"
	defaultAppLogLevel  = "info"
	defaultAppHTTPAddr  = ":9917"
	defaultAppDataDir   = "/data/ltvpilot"
	defaultAPIBaseURL   = "http://localhost:5000/api"
	defaultAPITimeout   = 15
	defaultPollInterval = 30
	defaultPollPerPage  = 10
)

// applyDefaults fills unset fields; explicit zero values are not
// distinguishable from absent ones here, the loader treats both the same.
func (c *Config) applyDefaults() {
	c.App.applyDefaults()
	c.API.applyDefaults()
	c.Poll.applyDefaults()
}

func (a *AppConfig) applyDefaults() {
	if strings.TrimSpace(a.Env) == "" {
		a.Env = defaultAppEnv
	}
	if strings.TrimSpace(a.LogLevel) == "" {
		a.LogLevel = defaultAppLogLevel
	}
	if strings.TrimSpace(a.HTTPAddr) == "" {
		a.HTTPAddr = defaultAppHTTPAddr
	}
	if strings.TrimSpace(a.DataDir) == "" {
		a.DataDir = defaultAppDataDir
	}
}

func (a *APIConfig) applyDefaults() {
	if strings.TrimSpace(a.BaseURL) == "" {
		a.BaseURL = defaultAPIBaseURL
	}
	if a.TimeoutSeconds <= 0 {
		a.TimeoutSeconds = defaultAPITimeout
	}
}

func (p *PollConfig) applyDefaults() {
	if p.IntervalSeconds <= 0 {
		p.IntervalSeconds = defaultPollInterval
	}
	if p.TransactionsPerPage <= 0 {
		p.TransactionsPerPage = defaultPollPerPage
	}
}
