// Package featureflags evaluates runtime switches configured through the
// environment or a YAML file.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// PerRecordEnrichment resolves authors one lookup per record instead of
	// one batched lookup per list.
	PerRecordEnrichment = "per_record_enrichment"
	// LiveFeedEvents publishes committed writes to the event sinks.
	LiveFeedEvents = "live_feed_events"
)

// Defaults apply to flags neither the environment nor the flag file sets.
var Defaults = map[string]string{
	LiveFeedEvents: "on",
}

// Manager evaluates feature flags defined in a simple key=value list.
// Example: "live_feed_events=on,per_record_enrichment=10%"
type Manager struct {
	flags map[string]string
	// env holds the names set by the config string.
	env map[string]bool
}

// NewManager creates a feature-flag manager from a comma-separated config
// string layered over Defaults.
func NewManager(raw string) *Manager {
	out := make(map[string]string, len(Defaults))
	for name, value := range Defaults {
		set(out, name, value)
	}
	env := make(map[string]bool)

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		set(out, parts[0], parts[1])
		env[normalize(parts[0])] = true
	}

	return &Manager{flags: out, env: env}
}

// flagFile is the YAML layout: a top-level `flags` mapping of name to value.
type flagFile struct {
	Flags map[string]interface{} `yaml:"flags"`
}

// LoadFile reads flags from a YAML file and layers them between Defaults and
// the environment: values set from the environment win.
func (m *Manager) LoadFile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read feature flags: %w", err)
	}
	var f flagFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("parse feature flags %s: %w", path, err)
	}
	for name, v := range f.Flags {
		if m.env[normalize(name)] {
			continue
		}
		set(m.flags, name, fmt.Sprint(v))
	}
	return nil
}

func set(flags map[string]string, name, value string) {
	key := normalize(name)
	val := normalize(value)
	if key == "" || val == "" {
		return
	}
	flags[key] = val
}

// Enabled returns whether a flag is enabled for a rollout key, normally the
// app id.
// Supported values:
// - on/true/1
// - off/false/0
// - N% (deterministic rollout per key, e.g. 25%)
func (m *Manager) Enabled(name, key string) bool {
	if m == nil {
		return false
	}

	value, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	if strings.HasSuffix(value, "%") {
		pct, err := strconv.Atoi(strings.TrimSuffix(value, "%"))
		if err != nil || pct <= 0 {
			return false
		}
		if pct >= 100 {
			return true
		}
		if key == "" {
			return false
		}
		return rolloutBucket(name, key) < pct
	}

	return false
}

// Raw returns a copy of configured flags.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.flags))
	for k, v := range m.flags {
		out[k] = v
	}
	return out
}

// Snapshot returns evaluated flag status for one rollout key.
func (m *Manager) Snapshot(key string) map[string]bool {
	out := make(map[string]bool, len(m.flags))
	for name := range m.flags {
		out[name] = m.Enabled(name, key)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name, key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name) + ":" + key))
	return int(h.Sum32() % 100)
}
