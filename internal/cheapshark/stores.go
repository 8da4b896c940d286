package cheapshark

import (
	"strings"

	"github.com/PKHarsimran/discord-coop-game-deals-bot/internal/config"
)

// FilterStores applies the configured allow/deny lists to the store
// directory. Allow lists (by id or by name) narrow the map first; deny
// lists then remove from whatever survived. Names are compared after
// lower-casing and whitespace collapsing.
func FilterStores(stores map[string]Store, s *config.Settings) map[string]Store {
	allowedIDs := toSet(s.AllowedStoreIDs)
	excludedIDs := toSet(s.ExcludedStoreIDs)
	allowedNames := toNameSet(s.AllowedStoreNames)
	excludedNames := toNameSet(s.ExcludedStoreNames)

	selected := make(map[string]Store, len(stores))
	for id, st := range stores {
		name := normalizeStoreName(st.StoreName)
		if len(allowedIDs) > 0 || len(allowedNames) > 0 {
			if !allowedIDs[id] && !allowedNames[name] {
				continue
			}
		}
		if excludedIDs[id] || excludedNames[name] {
			continue
		}
		selected[id] = st
	}
	return selected
}

func normalizeStoreName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func toNameSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[normalizeStoreName(v)] = true
	}
	return set
}
