package extract

// Helpers over the generic value produced by encoding/json when decoding
// into any: objects are map[string]any, arrays are []any.

// path walks nested object keys and returns the value found, or nil.
func path(v any, keys ...string) any {
	cur := v
	for _, k := range keys {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = obj[k]
	}
	return cur
}

func object(v any, keys ...string) map[string]any {
	obj, _ := path(v, keys...).(map[string]any)
	return obj
}

func array(v any, keys ...string) []any {
	arr, _ := path(v, keys...).([]any)
	return arr
}

func str(v any, keys ...string) string {
	s, _ := path(v, keys...).(string)
	return s
}

// optString returns a pointer to the string at keys, or nil when it is
// absent or not a string.
func optString(v any, keys ...string) *string {
	s, ok := path(v, keys...).(string)
	if !ok {
		return nil
	}
	return &s
}

func integer(v any, keys ...string) (int, bool) {
	f, ok := path(v, keys...).(float64)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// firstString tries each key path in order and returns the first non-empty
// string.
func firstString(v any, paths ...[]string) string {
	for _, p := range paths {
		if s := str(v, p...); s != "" {
			return s
		}
	}
	return ""
}

// firstObject returns the first path that resolves to an object.
func firstObject(v any, paths ...[]string) map[string]any {
	for _, p := range paths {
		if obj := object(v, p...); obj != nil {
			return obj
		}
	}
	return nil
}

func keys(ks ...string) []string { return ks }
