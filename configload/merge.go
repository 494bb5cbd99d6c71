package configload

// deepMerge merges src into dst and returns dst. Plain keyed structures
// recurse; every other value, ordered sequences included, overwrites the
// target wholesale. Arrays are never merged element-wise.
//
// dst must be owned by the caller; nested maps inside it are replaced with
// fresh maps as needed so source layers are never mutated.
func deepMerge(dst, src map[string]any) map[string]any {
	for k, v := range src {
		sm, isMap := v.(map[string]any)
		if !isMap {
			dst[k] = v
			continue
		}
		dm, ok := dst[k].(map[string]any)
		if !ok {
			dm = make(map[string]any, len(sm))
		}
		dst[k] = deepMerge(dm, sm)
	}
	return dst
}
