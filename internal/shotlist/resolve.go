package shotlist

import (
	"errors"
	"fmt"
	"strings"

	"renderq/internal/services"
	"renderq/internal/textutil"
)

// ErrParentCycle reports a parent chain that loops back on itself. It matches
// services.ErrNotFound since the chain never reaches a resolvable root.
var ErrParentCycle = fmt.Errorf("%w: parent chain cycle", services.ErrNotFound)

// pathFields are rewritten from "//" onto project_root after merging.
var pathFields = []string{"blend_file", "output_filepath_override", "world_hdri"}

// ResolvedShot is the merged, path-resolved field set of one shot.
type ResolvedShot struct {
	Key    ShotKey
	Fields map[string]any
}

// ResolveShot merges the parent chain of (category, id). Resolution is
// recomputed on every call.
func (db *DB) ResolveShot(category, id string) (ResolvedShot, error) {
	key := ShotKey{Category: category, ID: id}
	chain := make([]*Record, 0, 4)
	seen := make(map[ShotKey]struct{}, 4)

	for next := key; ; {
		if _, dup := seen[next]; dup {
			return ResolvedShot{}, services.Wrap(ErrParentCycle, component, "resolve", describeChain(chain, next), nil)
		}
		seen[next] = struct{}{}

		rec := db.find(next)
		if rec == nil {
			msg := "no shot " + next.String()
			if len(chain) > 0 {
				msg = fmt.Sprintf("shot %s: parent %s not found", chain[len(chain)-1].Key, next)
			}
			return ResolvedShot{}, services.Wrap(services.ErrNotFound, component, "resolve", msg, nil)
		}
		chain = append(chain, rec)
		if rec.Parent == nil {
			break
		}
		next = *rec.Parent
	}

	merged := make(map[string]any)
	for i := len(chain) - 1; i >= 0; i-- {
		for k, v := range chain[i].Fields {
			merged[k] = cloneValue(v)
		}
	}

	root := db.projectRoot
	if override, ok := merged["project_root"].(string); ok && override != "" {
		root = override
	}
	for _, field := range pathFields {
		if value, ok := merged[field].(string); ok {
			merged[field] = ResolveProjectPath(root, value)
		}
	}

	return ResolvedShot{Key: key, Fields: merged}, nil
}

func describeChain(chain []*Record, repeat ShotKey) string {
	parts := make([]string, 0, len(chain)+1)
	for _, rec := range chain {
		parts = append(parts, rec.Key.String())
	}
	parts = append(parts, repeat.String())
	return strings.Join(parts, " -> ")
}

func cloneValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, inner := range typed {
			out[k] = cloneValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, inner := range typed {
			out[i] = cloneValue(inner)
		}
		return out
	default:
		return v
	}
}

// Lookup returns the raw merged value for key.
func (s ResolvedShot) Lookup(key string) (any, bool) {
	v, ok := s.Fields[key]
	return v, ok
}

// Has reports whether key is present.
func (s ResolvedShot) Has(key string) bool {
	_, ok := s.Fields[key]
	return ok
}

// String returns key as a string, formatting non-string scalars.
func (s ResolvedShot) String(key string) (string, bool) {
	v, ok := s.Fields[key]
	if !ok || v == nil {
		return "", false
	}
	if str, ok := v.(string); ok {
		return str, true
	}
	return fmt.Sprint(v), true
}

// Bool coerces key with textutil.ParseBool, returning def when absent.
func (s ResolvedShot) Bool(key string, def bool) bool {
	v, ok := s.Fields[key]
	if !ok || v == nil {
		return def
	}
	return textutil.ParseBool(v)
}

// Title returns the shot title, defaulting to <category>_<id>.
func (s ResolvedShot) Title() string {
	if title, ok := s.String("title"); ok && strings.TrimSpace(title) != "" {
		return title
	}
	return s.Key.Category + "_" + s.Key.ID
}

// IsNotFound reports whether err came from a failed shot lookup.
func IsNotFound(err error) bool {
	return errors.Is(err, services.ErrNotFound)
}
