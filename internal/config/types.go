package config

// Config is the top-level ltvpilot configuration.
type Config struct {
	App      AppConfig      `toml:"app"`
	API      APIConfig      `toml:"api"`
	Poll     PollConfig     `toml:"poll"`
	Notify   NotifyConfig   `toml:"notify"`
	Bindings BindingsConfig `toml:"bindings"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	LogPath  string `toml:"log_path"`
	HTTPAddr string `toml:"http_addr"`
	DataDir  string `toml:"data_dir"`
}

// APIConfig describes the remote strategy service boundary.
type APIConfig struct {
	BaseURL            string `toml:"base_url"`
	TimeoutSeconds     int    `toml:"timeout_seconds"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
}

type PollConfig struct {
	IntervalSeconds     int `toml:"interval_seconds"`
	TransactionsPerPage int `toml:"transactions_per_page"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
}

type TelegramConfig struct {
	Enabled   bool   `toml:"enabled"`
	BotToken  string `toml:"bot_token"`
	ChatID    string `toml:"chat_id"`
	WithChart bool   `toml:"with_chart"`
}

// BindingsConfig points at the action-bindings file; an empty path keeps
// the built-in table.
type BindingsConfig struct {
	Path string `toml:"path"`
}
