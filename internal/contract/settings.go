package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// LoadSettingsFile reads a config document and merges it over the defaults.
// A missing file yields the defaults. A corrupt file yields the defaults together
// with a *ConfigLoadError so the caller can warn and carry on.
func LoadSettingsFile(path string) (Settings, error) {
	settings := DefaultSettings()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return settings, nil
	}
	if err != nil {
		return settings, &ConfigLoadError{Path: path, Err: err}
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return DefaultSettings(), &ConfigLoadError{Path: path, Err: err}
	}
	rawModels := doc["models"]
	delete(doc, "models")

	// Re-encoding the remaining document over the defaults merges nested sections key by key.
	rest, err := json.Marshal(doc)
	if err != nil {
		return DefaultSettings(), &ConfigLoadError{Path: path, Err: err}
	}
	if err := json.Unmarshal(rest, &settings); err != nil {
		return DefaultSettings(), &ConfigLoadError{Path: path, Err: err}
	}
	models, err := MergeModelPricing(DefaultModelPricing(), rawModels)
	if err != nil {
		return DefaultSettings(), &ConfigLoadError{Path: path, Err: err}
	}
	settings.Models = models
	return settings, nil
}

// SaveConfigFile writes settings as indented JSON, creating the parent directory.
func SaveConfigFile(path string, settings Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// splitKey splits a dotted key into its path. Keys under models keep the model id
// whole, so models.gpt-3.5-turbo.input is [models gpt-3.5-turbo input].
func splitKey(key string) []string {
	key = strings.TrimSpace(key)
	if rest, ok := strings.CutPrefix(key, "models."); ok {
		idx := strings.LastIndex(rest, ".")
		if idx <= 0 {
			return []string{"models", rest}
		}
		return []string{"models", rest[:idx], rest[idx+1:]}
	}
	return strings.Split(key, ".")
}

func settingsToMap(s Settings) (map[string]any, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// GetSettingValue looks up a dotted key such as prometheus.port.
func GetSettingValue(s Settings, key string) (any, error) {
	doc, err := settingsToMap(s)
	if err != nil {
		return nil, err
	}
	var cur any = doc
	for _, part := range splitKey(key) {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("unknown config key %q", key)
		}
		cur, ok = m[part]
		if !ok {
			return nil, fmt.Errorf("unknown config key %q", key)
		}
	}
	return cur, nil
}

// SetSettingValue assigns a string value to a dotted key, converting it to the type
// already stored at that key. New keys are only allowed under models.
func SetSettingValue(s *Settings, key, value string) error {
	path := splitKey(key)
	if len(path) == 0 || path[0] == "" {
		return fmt.Errorf("empty config key")
	}

	if path[0] == "models" {
		if len(path) != 3 {
			return fmt.Errorf("model prices are set as models.<id>.input or models.<id>.output, got %q", key)
		}
		f, err := cast.ToFloat64E(value)
		if err != nil {
			return fmt.Errorf("invalid price %q: %w", value, err)
		}
		models, err := MergeModelPricing(s.Models, map[string]any{path[1]: map[string]any{path[2]: f}})
		if err != nil {
			return err
		}
		s.Models = models
		return nil
	}

	doc, err := settingsToMap(*s)
	if err != nil {
		return err
	}
	parent := doc
	for _, part := range path[:len(path)-1] {
		next, ok := parent[part].(map[string]any)
		if !ok {
			return fmt.Errorf("unknown config key %q", key)
		}
		parent = next
	}
	leaf := path[len(path)-1]
	current, ok := parent[leaf]
	if !ok {
		return fmt.Errorf("unknown config key %q", key)
	}

	var converted any
	switch current.(type) {
	case bool:
		converted, err = ParseBoolString(value)
	case float64:
		converted, err = cast.ToFloat64E(value)
	case map[string]any:
		err = fmt.Errorf("%q is a section, set one of its keys instead", key)
	default:
		converted = value
	}
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	parent[leaf] = converted

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var updated Settings
	if err := json.Unmarshal(data, &updated); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*s = updated
	return nil
}

// FlattenSettings lists every leaf key with its value, sorted by key.
func FlattenSettings(s Settings) ([][2]string, error) {
	doc, err := settingsToMap(s)
	if err != nil {
		return nil, err
	}
	var rows [][2]string
	var walk func(prefix string, v any)
	walk = func(prefix string, v any) {
		if m, ok := v.(map[string]any); ok {
			for k, child := range m {
				key := k
				if prefix != "" {
					key = prefix + "." + k
				}
				walk(key, child)
			}
			return
		}
		rows = append(rows, [2]string{prefix, cast.ToString(v)})
	}
	walk("", doc)
	sort.Slice(rows, func(i, j int) bool { return rows[i][0] < rows[j][0] })
	return rows, nil
}
