package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/PKHarsimran/discord-coop-game-deals-bot/internal/cheapshark"
	"github.com/PKHarsimran/discord-coop-game-deals-bot/internal/config"
	"github.com/PKHarsimran/discord-coop-game-deals-bot/internal/ledger"
	"github.com/PKHarsimran/discord-coop-game-deals-bot/internal/models"
	"github.com/PKHarsimran/discord-coop-game-deals-bot/internal/notifier"
	"github.com/PKHarsimran/discord-coop-game-deals-bot/internal/pipeline"
	"github.com/PKHarsimran/discord-coop-game-deals-bot/internal/steam"
)

// Clients bundles the external collaborators of one run.
type Clients struct {
	CheapShark *cheapshark.Client
	Steam      *steam.Client
	Notifier   *notifier.Client
}

// Run executes one full pipeline pass: fetch, enrich, rank, select,
// publish, persist. It returns an error only for failures the pipeline
// cannot proceed without (store directory, webhook, ledger write).
func Run(ctx context.Context, cfg *config.Settings, c Clients) error {
	slog.Info("Starting co-op deals run",
		"max_price", cfg.MaxPrice,
		"max_posts", cfg.MaxPostsPerRun,
		"steam_redeemable_only", cfg.OnlySteamRedeemable,
		"steam_direct_specials", cfg.IncludeSteamDirectSpecials,
		"digest_mode", cfg.DigestMode,
		"sweet_spot", cfg.PriceSweetSpot,
		"profile", cfg.ProfileName,
	)

	stores, err := c.CheapShark.FetchStores(ctx)
	if err != nil {
		return fmt.Errorf("store directory: %w", err)
	}
	filtered := cheapshark.FilterStores(stores, cfg)
	if len(filtered) == 0 {
		slog.Info("No stores matched current allow/exclude filters, nothing to do")
		return nil
	}

	posted := ledger.LoadPostedIDs(cfg.PostedCacheFile)
	cache := ledger.LoadMetadataCache(cfg.SteamCacheFile)
	slog.Info("Ledger loaded", "posted", len(posted), "cached_apps", cache.Len())

	candidates, err := c.CheapShark.FetchDeals(ctx, cfg.MaxPrice, cfg.OnlySteamRedeemable, filtered)
	if err != nil {
		if !cfg.IncludeSteamDirectSpecials {
			return fmt.Errorf("deal catalog: %w", err)
		}
		slog.Warn("CheapShark deals fetch failed, continuing with Steam specials only", "error", err)
		candidates = nil
	}
	if cfg.IncludeSteamDirectSpecials {
		specials, err := c.Steam.FetchSpecials(ctx, cfg.MaxPrice)
		if err != nil {
			slog.Warn("Steam specials fetch failed, continuing without them", "error", err)
		} else {
			candidates = append(candidates, specials...)
		}
	}
	slog.Info("Fetched candidates", "count", len(candidates))

	sel := pipeline.NewSelector(cfg, c.Steam, cache, posted)
	enriched := sel.Enrich(ctx, candidates)

	// Cache entries are expensive network calls; keep them even when
	// nothing gets posted.
	if err := cache.Save(); err != nil {
		slog.Warn("Failed to save metadata cache", "error", err)
	}

	selected := sel.Select(sel.Rank(enriched))
	stats := sel.Stats()
	stats.Log()

	if len(selected) == 0 {
		slog.Info("No new co-op deals found, nothing posted")
		return nil
	}

	digest := notifier.Digest{
		Deals:   selected,
		Title:   notifier.DigestTitle(cfg.DigestMode, cfg.MaxPrice, cfg.ProfileName),
		Metrics: stats.Summary(),
		Color:   cfg.EmbedColor,
	}
	if cfg.PingRoleOnPost && cfg.DiscordRoleID != "" {
		digest.RoleID = cfg.DiscordRoleID
	}

	if err := c.Notifier.PostDigest(ctx, digest); err != nil {
		return fmt.Errorf("publish digest: %w", err)
	}
	slog.Info("Posted deals to Discord", "count", len(selected))

	for _, d := range selected {
		posted[d.DealID] = true
	}
	if err := ledger.SavePostedIDs(cfg.PostedCacheFile, posted); err != nil {
		return fmt.Errorf("save posted ledger: %w", err)
	}
	slog.Info("Posted ledger updated", "total", len(posted))

	logSelection(selected)
	return nil
}

func logSelection(selected []models.Deal) {
	for _, d := range selected {
		slog.Debug("Selected deal",
			"title", d.Title,
			"price", d.SalePrice,
			"discount", d.SavingsPct,
			"store", d.StoreName,
			"reason", d.Reason,
		)
	}
}
