// internal/assistant/retrieval/queries.go
package retrieval

import (
	"sort"
	"strconv"
)

// BuildSearchQuery returns a best_fields multi_match over the weighted fields.
func BuildSearchQuery(text string, fields map[string]float64, size int) map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []interface{}{
					map[string]interface{}{
						"multi_match": map[string]interface{}{
							"query":  text,
							"fields": boostedFields(fields),
							"type":   "best_fields",
						},
					},
				},
			},
		},
		"size": size,
	}
}

// boostedFields renders fields as "name^boost", heaviest first.
func boostedFields(fields map[string]float64) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if fields[names[i]] != fields[names[j]] {
			return fields[names[i]] > fields[names[j]]
		}
		return names[i] < names[j]
	})

	out := make([]string, len(names))
	for i, name := range names {
		boost := fields[name]
		if boost == 1 || boost <= 0 {
			out[i] = name
			continue
		}
		out[i] = name + "^" + strconv.FormatFloat(boost, 'f', -1, 64)
	}
	return out
}
