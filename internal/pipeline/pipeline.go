package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/PKHarsimran/discord-coop-game-deals-bot/internal/config"
	"github.com/PKHarsimran/discord-coop-game-deals-bot/internal/ledger"
	"github.com/PKHarsimran/discord-coop-game-deals-bot/internal/models"
)

// Scoring weights. The sweet-spot bonus scales with how far below the
// configured sweet spot the sale price sits; the posted penalty keeps
// already-announced deals rankable but effectively buried.
const (
	cheapBonusWeight   = 4.0
	coopTagBonus       = 6.0
	reviewBonusDivisor = 5.0
	postedPenalty      = 35.0

	bigDiscountThreshold   = 75.0
	strongSentimentPercent = 80
)

// Selector runs the enrichment and selection stages over the combined
// candidate list. It owns the metadata cache and the posted set for the
// duration of one run.
type Selector struct {
	settings *config.Settings
	provider MetadataProvider
	cache    *ledger.MetadataCache
	posted   map[string]bool
	stats    Stats
}

func NewSelector(s *config.Settings, provider MetadataProvider, cache *ledger.MetadataCache, posted map[string]bool) *Selector {
	return &Selector{
		settings: s,
		provider: provider,
		cache:    cache,
		posted:   posted,
		stats:    Stats{},
	}
}

// Stats returns the per-stage rejection counters accumulated so far.
func (sel *Selector) Stats() Stats {
	return sel.stats
}

// Enrich applies the hard filters in order and attaches Steam metadata to
// every survivor. A metadata failure for one item skips that item only.
func (sel *Selector) Enrich(ctx context.Context, candidates []models.Deal) []models.Deal {
	sel.stats.Fetched += len(candidates)

	var enriched []models.Deal
	for _, d := range candidates {
		// Safety net; the catalogs already query below the ceiling.
		if d.SalePrice >= sel.settings.MaxPrice {
			sel.stats.PriceRejected++
			continue
		}
		if d.SavingsPct < float64(sel.settings.MinDiscountPercent) {
			sel.stats.DiscountRejected++
			continue
		}
		if sel.titleBlocked(d.Title) {
			sel.stats.KeywordRejected++
			continue
		}
		if d.SteamAppID == "" {
			sel.stats.MissingAppID++
			continue
		}

		meta, err := sel.lookupMetadata(ctx, d.SteamAppID)
		if err != nil {
			slog.Warn("Steam metadata lookup failed, skipping item",
				"title", d.Title, "appID", d.SteamAppID, "error", err)
			sel.stats.MetadataErrors++
			continue
		}
		if !meta.IsCoop {
			sel.stats.NotCoop++
			continue
		}
		if !PassesReviewThreshold(meta.ReviewPercent, meta.ReviewCount,
			sel.settings.MinReviewPercent, sel.settings.MinReviewCount) {
			sel.stats.ReviewRejected++
			continue
		}

		d.CoopTags = append([]string(nil), meta.CoopTags...)
		d.ReviewSummary = meta.ReviewSummary
		d.ReviewPercent = meta.ReviewPercent
		d.ReviewCount = meta.ReviewCount
		d.PlayerCount = meta.PlayerCount
		d.OwnersEstimate = meta.OwnersEstimate
		d.Reason = reasonFor(d, sel.settings.PriceSweetSpot)

		sel.stats.Enriched++
		enriched = append(enriched, d)
	}
	return enriched
}

func (sel *Selector) titleBlocked(title string) bool {
	lower := strings.ToLower(title)
	for _, kw := range sel.settings.ExcludeKeywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// lookupMetadata serves from the cache, performing the provider calls and
// populating the cache on a miss. Co-op and review lookups are required;
// popularity lookups degrade to nil with a warning. Failed lookups are
// never cached so the next run retries them.
func (sel *Selector) lookupMetadata(ctx context.Context, appID string) (*ledger.Metadata, error) {
	if meta := sel.cache.Get(appID); meta != nil {
		return meta, nil
	}

	isCoop, tags, err := sel.provider.CoopMetadata(ctx, appID)
	if err != nil {
		return nil, err
	}
	summary, pct, count, err := sel.provider.ReviewSummary(ctx, appID)
	if err != nil {
		return nil, err
	}

	meta := &ledger.Metadata{
		IsCoop:        isCoop,
		CoopTags:      tags,
		ReviewSummary: summary,
		ReviewPercent: pct,
		ReviewCount:   count,
	}

	if players, err := sel.provider.PlayerCount(ctx, appID); err != nil {
		slog.Warn("Player count lookup failed", "appID", appID, "error", err)
	} else {
		meta.PlayerCount = players
	}
	if owners, err := sel.provider.OwnersEstimate(ctx, appID); err != nil {
		slog.Warn("Owners estimate lookup failed", "appID", appID, "error", err)
	} else {
		meta.OwnersEstimate = owners
	}

	sel.cache.Set(appID, meta)
	return meta, nil
}

// Score is the ranking heuristic. Already-posted deals still score so the
// ranking pass stays uniform; the selection walk excludes them.
func (sel *Selector) Score(d models.Deal) float64 {
	score := d.SavingsPct
	if cheap := (sel.settings.PriceSweetSpot - d.SalePrice) * cheapBonusWeight; cheap > 0 {
		score += cheap
	}
	score += float64(len(d.CoopTags)) * coopTagBonus
	if d.ReviewPercent != nil {
		score += float64(*d.ReviewPercent) / reviewBonusDivisor
	}
	if sel.posted[d.DealID] {
		score -= postedPenalty
	}
	return score
}

// Rank orders deals by descending score; ties keep input order.
func (sel *Selector) Rank(deals []models.Deal) []models.Deal {
	ranked := append([]models.Deal(nil), deals...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return sel.Score(ranked[i]) > sel.Score(ranked[j])
	})
	return ranked
}

// Select walks the ranked list and greedily admits deals up to the post
// cap, skipping anything already posted in a prior run, any app id
// admitted earlier in this walk, and, when franchise dedupe is on, any
// franchise key admitted earlier in this walk.
func (sel *Selector) Select(ranked []models.Deal) []models.Deal {
	var selected []models.Deal
	seenApps := map[string]bool{}
	seenFranchises := map[string]bool{}

	for _, d := range ranked {
		if sel.posted[d.DealID] {
			sel.stats.AlreadyPosted++
			continue
		}
		if d.SteamAppID != "" && seenApps[d.SteamAppID] {
			sel.stats.DuplicateApp++
			continue
		}
		if sel.settings.FranchiseDedupe {
			key := FranchiseKey(d.Title, sel.settings.FranchiseDedupeWords)
			if key != "" {
				if seenFranchises[key] {
					sel.stats.DuplicateFranchise++
					continue
				}
				seenFranchises[key] = true
			}
		}

		if d.SteamAppID != "" {
			seenApps[d.SteamAppID] = true
		}
		selected = append(selected, d)
		if len(selected) >= sel.settings.MaxPostsPerRun {
			break
		}
	}

	sel.stats.Selected = len(selected)
	return selected
}

// PassesReviewThreshold applies the review gate. With any nonzero minimum
// configured, both percent and count must be known and meet their
// minimums; unknown data fails closed. With no minimums the gate passes
// regardless of the data.
func PassesReviewThreshold(percent, count *int, minPercent, minCount int) bool {
	if minPercent <= 0 && minCount <= 0 {
		return true
	}
	if percent == nil || count == nil {
		return false
	}
	return *percent >= minPercent && *count >= minCount
}

func reasonFor(d models.Deal, sweetSpot float64) string {
	var reasons []string
	if d.SavingsPct >= bigDiscountThreshold {
		reasons = append(reasons, fmt.Sprintf("massive -%.0f%% discount", d.SavingsPct))
	}
	if d.SalePrice <= sweetSpot {
		reasons = append(reasons, fmt.Sprintf("in the sweet spot under $%.2f", sweetSpot))
	}
	if len(d.CoopTags) > 1 {
		reasons = append(reasons, "supports multiple co-op modes")
	}
	if d.ReviewSummary != "" && d.ReviewPercent != nil && *d.ReviewPercent >= strongSentimentPercent {
		reasons = append(reasons, fmt.Sprintf("strong Steam sentiment (%d%%)", *d.ReviewPercent))
	}
	if len(reasons) == 0 {
		return "solid co-op value pick"
	}
	return strings.Join(reasons, ", ")
}
