// Package gource converts render profile settings to and from the INI
// format read by `gource --load-config`.
package gource

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"gopkg.in/ini.v1"

	"github.com/gource-tools/gource-tools/internal/domain"
)

const (
	sectionGource  = "gource"
	sectionDisplay = "display"
)

// displayKeys live in the [display] section, everything else in [gource].
var displayKeys = map[string]string{
	"resolution":     "viewport",
	"viewport":       "viewport",
	"fullscreen":     "fullscreen",
	"multi-sampling": "multi-sampling",
}

// Export renders a profile as a Gource config file. title, when non-empty,
// overrides any title option in the profile. Non-string titles are dropped.
func Export(profile domain.RenderProfile, title string) ([]byte, error) {
	cfg := ini.Empty()
	gourceSec, err := cfg.NewSection(sectionGource)
	if err != nil {
		return nil, err
	}
	var displaySec *ini.Section

	keys := make([]string, 0, len(profile.Settings))
	for k := range profile.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		value, ok := formatValue(profile.Settings[k])
		if !ok {
			continue
		}
		if k == "title" {
			// Only a string is a usable title.
			if _, isString := profile.Settings[k].(string); !isString || title != "" {
				continue
			}
		}
		sec := gourceSec
		name := k
		if mapped, isDisplay := displayKeys[k]; isDisplay {
			if displaySec == nil {
				if displaySec, err = cfg.NewSection(sectionDisplay); err != nil {
					return nil, err
				}
			}
			sec, name = displaySec, mapped
		}
		if _, err := sec.NewKey(name, value); err != nil {
			return nil, fmt.Errorf("gource: key %s: %w", k, err)
		}
	}
	if title != "" {
		if _, err := gourceSec.NewKey("title", title); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if _, err := cfg.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("gource: write config: %w", err)
	}
	return buf.Bytes(), nil
}

// Import parses a Gource config file into a settings bag. Numbers and
// booleans are decoded; everything else stays a string.
func Import(data []byte) (map[string]any, error) {
	cfg, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("gource: parse config: %w", err)
	}

	settings := map[string]any{}
	for _, name := range []string{sectionGource, sectionDisplay} {
		sec, err := cfg.GetSection(name)
		if err != nil {
			continue
		}
		for _, key := range sec.Keys() {
			settings[key.Name()] = parseValue(key.String())
		}
	}
	if vp, ok := settings["viewport"]; ok {
		settings["resolution"] = vp
		delete(settings, "viewport")
	}
	return settings, nil
}

// formatValue renders a settings value; false booleans and nil are omitted.
func formatValue(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case bool:
		if !val {
			return "", false
		}
		return "true", true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case string:
		return val, true
	default:
		return fmt.Sprint(val), true
	}
}

func parseValue(s string) any {
	switch s {
	case "true", "yes":
		return true
	case "false", "no":
		return false
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	return s
}
