package domain

import (
	"encoding/json"
	"slices"
	"strings"
)

// TeamKey builds the identity string of a member set. Members are sorted
// and deduplicated first so the key is order independent.
func TeamKey(members []string) string {
	b, _ := json.Marshal(NormalizeMembers(members))
	return string(b)
}

func ParseTeamKey(key string) ([]string, error) {
	var members []string
	if err := json.Unmarshal([]byte(key), &members); err != nil {
		return nil, err
	}
	return members, nil
}

func NormalizeMembers(members []string) []string {
	out := make([]string, 0, len(members))
	for _, m := range members {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
