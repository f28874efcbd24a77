package extract

import "sort"

// walkByKey traverses a decoded JSON tree up to maxDepth levels and calls
// visit for every value whose key matches pred. Objects are visited in
// sorted key order so candidate discovery is deterministic. Returning
// false from visit stops the walk. Depth bounding keeps runaway framework
// state (circular references are already broken by JSON encoding, but
// graphs can be huge) from dominating extraction time.
func walkByKey(root any, pred func(key string) bool, maxDepth int, visit func(value any) bool) {
	walk(root, pred, maxDepth, visit)
}

func walk(node any, pred func(string) bool, depth int, visit func(any) bool) bool {
	if depth < 0 {
		return true
	}
	switch v := node.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			value := v[key]
			if pred(key) {
				if !visit(value) {
					return false
				}
			}
			if !walk(value, pred, depth-1, visit) {
				return false
			}
		}
	case []any:
		for _, item := range v {
			if !walk(item, pred, depth-1, visit) {
				return false
			}
		}
	}
	return true
}

// collectStringsByKey gathers string values (including strings inside
// arrays and url/src-bearing objects) found under matching keys.
func collectStringsByKey(root any, pred func(string) bool, maxDepth, limit int) []string {
	var out []string
	walkByKey(root, pred, maxDepth, func(value any) bool {
		out = append(out, stringsWithin(value)...)
		return limit <= 0 || len(out) < limit
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func stringsWithin(value any) []string {
	switch v := value.(type) {
	case string:
		return []string{v}
	case []any:
		var out []string
		for _, item := range v {
			out = append(out, stringsWithin(item)...)
		}
		return out
	case map[string]any:
		if s := stringValue(v["url"]); s != "" {
			return []string{s}
		}
		if s := stringValue(v["src"]); s != "" {
			return []string{s}
		}
	}
	return nil
}
