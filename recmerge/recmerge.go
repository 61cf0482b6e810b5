// Package recmerge merges nested string-keyed maps recursively, the
// shape produced by decoding JSON or YAML into interface maps. It is
// a companion for layering configuration documents over each other.
package recmerge

// Merge merges src into dst in place and returns dst. When both sides
// hold a nested map the maps merge recursively; any other src value
// overwrites the dst value. src is never modified, though nested maps
// taken from src end up shared with dst. A nil dst is allocated.
func Merge(
	dst, src map[string]interface{},
) map[string]interface{} {
	if dst == nil {
		dst = make(map[string]interface{}, len(src))
	}

	for key, value := range src {
		srcMap, srcIsMap := value.(map[string]interface{})
		dstMap, dstIsMap := dst[key].(map[string]interface{})

		if srcIsMap && dstIsMap {
			dst[key] = Merge(dstMap, srcMap)
			continue
		}

		dst[key] = value
	}

	return dst
}
