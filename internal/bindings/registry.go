// Package bindings maps presentation actions to dispatcher commands
// through a declarative table, so business logic stays decoupled from
// the UI wiring. The table ships with built-in defaults and can be
// overridden by a schema-validated YAML file that hot-reloads on
// change.
package bindings

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"ltvpilot/internal/dispatch"
	"ltvpilot/internal/logger"
)

// Binding ties one named presentation action to a command.
type Binding struct {
	Action  string `mapstructure:"action" yaml:"action" json:"action"`
	Command string `mapstructure:"command" yaml:"command" json:"command"`
	Label   string `mapstructure:"label" yaml:"label" json:"label"`
	Confirm bool   `mapstructure:"confirm" yaml:"confirm" json:"confirm"`
}

// FileConfig maps the bindings file.
type FileConfig struct {
	Actions []Binding `mapstructure:"actions" yaml:"actions"`
}

// Snapshot is an immutable view of the table.
type Snapshot struct {
	Version  int64
	LoadedAt time.Time
	Bindings map[string]Binding
}

// ChangeListener fires after a successful reload.
type ChangeListener func(Snapshot)

// fileSchema validates the bindings file before it replaces the table;
// a malformed edit keeps the previous table live.
const fileSchema = `{
	"type": "object",
	"required": ["actions"],
	"properties": {
		"actions": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["action", "command"],
				"properties": {
					"action":  {"type": "string", "minLength": 1},
					"command": {"type": "string", "minLength": 1},
					"label":   {"type": "string"},
					"confirm": {"type": "boolean"}
				}
			}
		}
	}
}`

var compiledSchema = jsonschema.MustCompileString("bindings.json", fileSchema)

// Registry manages the action table.
type Registry struct {
	path string
	v    *viper.Viper

	mu        sync.RWMutex
	snapshot  Snapshot
	listeners []ChangeListener
}

// NewRegistry loads the bindings file and watches it for updates. An
// empty path keeps the built-in defaults with no watcher.
func NewRegistry(path string) (*Registry, error) {
	r := &Registry{}
	if strings.TrimSpace(path) == "" {
		r.snapshot = defaultsSnapshot(1)
		return r, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading bindings file failed: %w", err)
	}
	r.path = path
	r.v = v
	if err := r.reload(); err != nil {
		return nil, err
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := r.reload(); err != nil {
			logger.Errorf("bindings reload failed, keeping previous table: %v", err)
			return
		}
		r.notifyListeners()
	})
	v.WatchConfig()
	return r, nil
}

// Snapshot returns the current table.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneSnapshot(r.snapshot)
}

// Resolve looks up a presentation action.
func (r *Registry) Resolve(action string) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.snapshot.Bindings[strings.TrimSpace(action)]
	return b, ok
}

// Subscribe registers a reload listener.
func (r *Registry) Subscribe(l ChangeListener) {
	if l == nil {
		return
	}
	r.mu.Lock()
	r.listeners = append(r.listeners, l)
	r.mu.Unlock()
}

func (r *Registry) reload() error {
	settings := r.v.AllSettings()
	if err := validateAgainstSchema(settings); err != nil {
		return err
	}
	var cfg FileConfig
	if err := r.v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("parsing bindings failed: %w", err)
	}
	table := make(map[string]Binding, len(cfg.Actions))
	for _, b := range cfg.Actions {
		action := strings.TrimSpace(b.Action)
		cmd := dispatch.Command(strings.TrimSpace(b.Command))
		if !dispatch.Known(cmd) {
			return fmt.Errorf("binding %q references unknown command %q", action, b.Command)
		}
		if _, dup := table[action]; dup {
			return fmt.Errorf("duplicate binding for action %q", action)
		}
		b.Action = action
		b.Command = string(cmd)
		table[action] = b
	}

	r.mu.Lock()
	r.snapshot = Snapshot{
		Version:  r.snapshot.Version + 1,
		LoadedAt: time.Now().UTC(),
		Bindings: table,
	}
	r.mu.Unlock()
	return nil
}

func (r *Registry) notifyListeners() {
	r.mu.RLock()
	listeners := make([]ChangeListener, len(r.listeners))
	copy(listeners, r.listeners)
	snap := cloneSnapshot(r.snapshot)
	r.mu.RUnlock()
	for _, l := range listeners {
		l(snap)
	}
}

// validateAgainstSchema round-trips the settings through JSON so the
// schema library sees canonical types.
func validateAgainstSchema(settings map[string]any) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return fmt.Errorf("bindings file rejected by schema: %w", err)
	}
	return nil
}

func cloneSnapshot(s Snapshot) Snapshot {
	out := Snapshot{Version: s.Version, LoadedAt: s.LoadedAt, Bindings: make(map[string]Binding, len(s.Bindings))}
	for k, v := range s.Bindings {
		out.Bindings[k] = v
	}
	return out
}

// defaultBindingsYAML doubles as documentation for the override file
// format.
const defaultBindingsYAML = `actions:
  - {action: initialize, command: initialize, label: "Initialize Portfolio"}
  - {action: start, command: start, label: "Start Automation"}
  - {action: stop, command: stop, label: "Stop Automation"}
  - {action: rebalance, command: rebalance, label: "Manual Rebalance"}
  - {action: emergency-stop, command: emergency-stop, label: "Emergency Stop", confirm: true}
  - {action: alert-read, command: alert-read, label: "Mark Alert Read"}
  - {action: ltv-settings, command: ltv-settings, label: "Update LTV Targets"}
`

func defaultsSnapshot(version int64) Snapshot {
	var cfg FileConfig
	if err := yaml.Unmarshal([]byte(defaultBindingsYAML), &cfg); err != nil {
		// The default table is a compile-time constant; failing to
		// parse it is a programming error.
		panic(err)
	}
	table := make(map[string]Binding, len(cfg.Actions))
	for _, b := range cfg.Actions {
		table[b.Action] = b
	}
	return Snapshot{Version: version, LoadedAt: time.Now().UTC(), Bindings: table}
}
