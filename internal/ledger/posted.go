package ledger

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
)

type postedFile struct {
	DealIDs []string `json:"dealIDs"`
}

// LoadPostedIDs reads the set of already-announced deal identifiers.
// Both the current `{"dealIDs": [...]}` shape and the legacy bare-array
// shape are accepted. A missing or unparseable file yields an empty set.
func LoadPostedIDs(path string) map[string]bool {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Failed to read posted ledger, starting empty", "path", path, "error", err)
		}
		return map[string]bool{}
	}

	posted := map[string]bool{}
	var wrapped postedFile
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.DealIDs != nil {
		for _, id := range wrapped.DealIDs {
			posted[id] = true
		}
		return posted
	}
	var bare []string
	if err := json.Unmarshal(data, &bare); err == nil {
		for _, id := range bare {
			posted[id] = true
		}
		return posted
	}

	slog.Warn("Posted ledger is unparseable, starting empty", "path", path)
	return map[string]bool{}
}

// SavePostedIDs writes the posted set back, sorted for stable diffs.
func SavePostedIDs(path string, posted map[string]bool) error {
	ids := make([]string, 0, len(posted))
	for id := range posted {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	data, err := json.MarshalIndent(postedFile{DealIDs: ids}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal posted ledger: %w", err)
	}
	return writeFileAtomic(path, data)
}
