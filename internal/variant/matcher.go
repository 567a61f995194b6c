package variant

import (
	"sort"
	"strings"
)

// CompatibleWithSelection reports whether a candidate variant is reachable
// from the user's partial option selection by changing at most one remaining
// option. Keys present with equal values in both sets are discarded; the
// candidate is compatible when at most one distinct key differs between the
// selection and the candidate's parameters. An exact match is compatible.
func CompatibleWithSelection(selection, params map[string]string) bool {
	differing := map[string]struct{}{}
	for key, value := range selection {
		if v, ok := params[key]; !ok || v != value {
			differing[key] = struct{}{}
		}
	}
	for key, value := range params {
		if v, ok := selection[key]; !ok || v != value {
			differing[key] = struct{}{}
		}
	}
	return len(differing) <= 1
}

// SerializeParameters encodes variant option parameters into the canonical
// relation hash: keys sorted, "key=value" pairs joined by ";".
func SerializeParameters(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+params[key])
	}
	return strings.Join(pairs, ";")
}

// UnserializeParameters decodes a relation hash back into its parameter map.
// Malformed fragments are skipped.
func UnserializeParameters(hash string) map[string]string {
	params := map[string]string{}
	for _, pair := range strings.Split(hash, ";") {
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			continue
		}
		params[key] = value
	}
	return params
}
