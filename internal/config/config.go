package config

import (
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
)

const (
	// DefaultProfileName is used when PROFILE_NAME is unset or sanitizes
	// to nothing.
	DefaultProfileName = "default"

	maxProfileNameLen = 32
)

// Settings holds every knob for a single run. It is built once from the
// environment and read-only afterwards.
type Settings struct {
	DiscordWebhookURL      string
	DiscordWebhookUsername string

	MaxPrice                   float64
	MaxPostsPerRun             int
	OnlySteamRedeemable        bool
	IncludeSteamDirectSpecials bool

	AllowedStoreIDs    []string
	ExcludedStoreIDs   []string
	AllowedStoreNames  []string
	ExcludedStoreNames []string
	ExcludeKeywords    []string

	MinDiscountPercent   int
	MinReviewPercent     int
	MinReviewCount       int
	FranchiseDedupe      bool
	FranchiseDedupeWords int
	PriceSweetSpot       float64

	DigestMode  string
	ProfileName string

	PostedCacheFile string
	SteamCacheFile  string

	EmbedColor     int
	PingRoleOnPost bool
	DiscordRoleID  string
}

// Load reads the settings from the environment. It never fails: a value
// that is missing or does not parse degrades to its documented default.
func Load() *Settings {
	s := &Settings{
		DiscordWebhookURL:      strings.TrimSpace(os.Getenv("DISCORD_WEBHOOK_URL")),
		DiscordWebhookUsername: envString("DISCORD_WEBHOOK_USERNAME", "Co-op Deals Bot"),

		MaxPrice:                   envFloat("MAX_PRICE", 10.00),
		MaxPostsPerRun:             envInt("MAX_POSTS_PER_RUN", 10),
		OnlySteamRedeemable:        envBool("ONLY_STEAM_REDEEMABLE", true),
		IncludeSteamDirectSpecials: envBool("INCLUDE_STEAM_DIRECT_SPECIALS", true),

		AllowedStoreIDs:    envCSV("ALLOWED_STORE_IDS"),
		ExcludedStoreIDs:   envCSV("EXCLUDED_STORE_IDS"),
		AllowedStoreNames:  envCSV("ALLOWED_STORE_NAMES"),
		ExcludedStoreNames: envCSV("EXCLUDED_STORE_NAMES"),

		MinDiscountPercent:   clamp(envInt("MIN_DISCOUNT_PERCENT", 0), 0, 100),
		MinReviewPercent:     clamp(envInt("MIN_REVIEW_PERCENT", 0), 0, 100),
		MinReviewCount:       max(0, envInt("MIN_REVIEW_COUNT", 0)),
		FranchiseDedupe:      envBool("FRANCHISE_DEDUPE", true),
		FranchiseDedupeWords: clamp(envInt("FRANCHISE_DEDUPE_WORDS", 2), 1, 5),
		PriceSweetSpot:       envFloat("PRICE_SWEET_SPOT", 5.00),

		DigestMode:  digestMode(os.Getenv("DIGEST_MODE")),
		ProfileName: SanitizeProfileName(os.Getenv("PROFILE_NAME")),

		PostedCacheFile: envString("POSTED_CACHE_FILE", "data/posted_deals.json"),
		SteamCacheFile:  envString("STEAM_CACHE_FILE", "data/steam_cache.json"),

		EmbedColor:     envColor("EMBED_COLOR", 0x57F287),
		PingRoleOnPost: envBool("PING_ROLE_ON_POST", false),
		DiscordRoleID:  strings.TrimSpace(os.Getenv("DISCORD_ROLE_ID")),
	}

	// Default keyword blocklist; an EXCLUDE_KEYWORDS variable, even an
	// empty one, overrides it entirely.
	if v, ok := os.LookupEnv("EXCLUDE_KEYWORDS"); ok {
		s.ExcludeKeywords = splitCSV(v)
	} else {
		s.ExcludeKeywords = []string{"hentai", "nsfw", "sex", "porn", "simulator"}
	}

	return s
}

var truthyTokens = map[string]bool{
	"1": true, "true": true, "yes": true, "y": true, "on": true,
}

var falsyTokens = map[string]bool{
	"0": true, "false": true, "no": true, "n": true, "off": true,
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return def
	}
	if truthyTokens[v] {
		return true
	}
	if falsyTokens[v] {
		return false
	}
	slog.Debug("Unparseable boolean, using default", "key", key, "value", v, "default", def)
	return def
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Debug("Unparseable integer, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Debug("Unparseable float, using default", "key", key, "value", v, "default", def)
		return def
	}
	return f
}

// envColor accepts decimal or 0x-prefixed hex.
func envColor(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 0, 64)
	if err != nil || n < 0 {
		return def
	}
	return int(n)
}

func envCSV(key string) []string {
	return splitCSV(os.Getenv(key))
}

func splitCSV(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func digestMode(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "weekend":
		return "weekend"
	case "budget":
		return "budget"
	default:
		return "daily"
	}
}

var (
	profileInvalidRuns   = regexp.MustCompile(`[^a-z0-9_-]+`)
	profileSeparatorRuns = regexp.MustCompile(`[-_]{2,}`)
)

// SanitizeProfileName normalizes a profile name so it is safe to show in
// message titles and file names: lower-cased, runs of invalid characters
// become a single hyphen, repeated separators collapse, the result is
// trimmed and capped at 32 characters. An empty result falls back to
// DefaultProfileName. The transform is idempotent.
func SanitizeProfileName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = profileInvalidRuns.ReplaceAllString(n, "-")
	n = profileSeparatorRuns.ReplaceAllString(n, "-")
	n = strings.Trim(n, "-_")
	if len(n) > maxProfileNameLen {
		n = n[:maxProfileNameLen]
		n = strings.Trim(n, "-_")
	}
	if n == "" {
		return DefaultProfileName
	}
	return n
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
