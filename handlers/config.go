package handlers

import (
	"sort"
	"strings"

	"github.com/smallnest/ragpipe"
)

// conf wraps a node's raw config map with typed, defaulting accessors.
// Construction fails on unrecognized keys; accessors fail on wrong types.
type conf struct {
	raw map[string]any
}

// parseConf checks raw against the handler's recognized keys. timeout_sec
// is always recognized because the engine reads it.
func parseConf(raw map[string]any, keys ...string) (conf, error) {
	allowed := make(map[string]bool, len(keys)+1)
	allowed["timeout_sec"] = true
	for _, k := range keys {
		allowed[k] = true
	}
	var unknown []string
	for k := range raw {
		if !allowed[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return conf{}, ragpipe.Errorf(ragpipe.KindInvalidConfig,
			"unrecognized config keys: %s", strings.Join(unknown, ", "))
	}
	return conf{raw: raw}, nil
}

// has reports whether the key was supplied at all, so handlers can tell an
// explicit zero from an omitted key.
func (c conf) has(key string) bool {
	_, ok := c.raw[key]
	return ok
}

func (c conf) str(key, def string) (string, error) {
	v, ok := c.raw[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", ragpipe.Errorf(ragpipe.KindInvalidConfig, "config key %q must be a string", key)
	}
	return s, nil
}

func (c conf) integer(key string, def int) (int, error) {
	v, ok := c.raw[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, ragpipe.Errorf(ragpipe.KindInvalidConfig, "config key %q must be an integer", key)
		}
		return int(n), nil
	}
	return 0, ragpipe.Errorf(ragpipe.KindInvalidConfig, "config key %q must be an integer", key)
}

func (c conf) float(key string, def float64) (float64, error) {
	v, ok := c.raw[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	return 0, ragpipe.Errorf(ragpipe.KindInvalidConfig, "config key %q must be a number", key)
}

func (c conf) boolean(key string, def bool) (bool, error) {
	v, ok := c.raw[key]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, ragpipe.Errorf(ragpipe.KindInvalidConfig, "config key %q must be a boolean", key)
	}
	return b, nil
}

// sortedInputIDs returns the upstream node IDs in lexical order, so input
// scanning is deterministic regardless of completion order.
func sortedInputIDs(inputs map[string]any) []string {
	ids := make([]string, 0, len(inputs))
	for id := range inputs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
