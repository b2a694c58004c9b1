package model

import (
	"encoding/json"
	"strings"
)

// NormalizeTeam converts the legacy team representations found in older
// records, whether a bare name string, a list of name strings, a list
// of objects, or a single object, into a uniform []TeamMember. Members
// without an explicit id get one derived from their name, so repeated
// normalization of the same record is stable.
func NormalizeTeam(raw json.RawMessage) []TeamMember {
	if len(raw) == 0 {
		return []TeamMember{}
	}

	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return appendMember([]TeamMember{}, TeamMember{Name: name})
	}

	var one TeamMember
	if err := json.Unmarshal(raw, &one); err == nil && one.Name != "" {
		return appendMember([]TeamMember{}, one)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []TeamMember{}
	}

	out := make([]TeamMember, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = appendMember(out, TeamMember{Name: s})
			continue
		}
		var m TeamMember
		if err := json.Unmarshal(item, &m); err == nil && m.Name != "" {
			out = appendMember(out, m)
		}
	}
	return out
}

func appendMember(list []TeamMember, m TeamMember) []TeamMember {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return list
	}
	if m.ID == "" {
		m.ID = memberID(m.Name)
	}
	return append(list, m)
}

func memberID(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), "-"))
}
