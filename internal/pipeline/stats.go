package pipeline

import (
	"fmt"
	"log/slog"
)

// Stats accumulates per-stage rejection counters for the end-of-run
// summary. It is observability only; no control flow reads it.
type Stats struct {
	Fetched            int
	PriceRejected      int
	DiscountRejected   int
	KeywordRejected    int
	MissingAppID       int
	MetadataErrors     int
	NotCoop            int
	ReviewRejected     int
	Enriched           int
	AlreadyPosted      int
	DuplicateApp       int
	DuplicateFranchise int
	Selected           int
}

// Summary is the compact metrics block appended to the Discord message.
func (s Stats) Summary() string {
	return fmt.Sprintf("Fetched: %d | Co-op matches: %d | Posted: %d",
		s.Fetched, s.Enriched, s.Selected)
}

// Log emits the full per-stage breakdown.
func (s Stats) Log() {
	slog.Info("Run summary",
		"fetched", s.Fetched,
		"price_rejected", s.PriceRejected,
		"discount_rejected", s.DiscountRejected,
		"keyword_rejected", s.KeywordRejected,
		"missing_app_id", s.MissingAppID,
		"metadata_errors", s.MetadataErrors,
		"not_coop", s.NotCoop,
		"review_rejected", s.ReviewRejected,
		"enriched", s.Enriched,
		"already_posted", s.AlreadyPosted,
		"duplicate_app", s.DuplicateApp,
		"duplicate_franchise", s.DuplicateFranchise,
		"selected", s.Selected,
	)
}
