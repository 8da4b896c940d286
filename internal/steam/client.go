package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	storeBaseURL    = "https://store.steampowered.com"
	apiBaseURL      = "https://api.steampowered.com"
	steamSpyBaseURL = "https://steamspy.com"
)

// coopCategoryKeywords is the exact category set that marks a title as
// co-op; anything merely containing "co-op" matches the loose fallback.
var coopCategoryKeywords = map[string]bool{
	"co-op":                     true,
	"online co-op":              true,
	"lan co-op":                 true,
	"shared/split screen co-op": true,
}

// Client talks to the Steam store API, the Steam web API and SteamSpy.
// Metadata lookups are rate limited so a cold cache does not hammer the
// store API.
type Client struct {
	store   *resty.Client
	api     *resty.Client
	spy     *resty.Client
	limiter *rate.Limiter
}

func New() *Client {
	return NewWithBaseURLs(storeBaseURL, apiBaseURL, steamSpyBaseURL)
}

// NewWithBaseURLs exists for tests pointing at local servers.
func NewWithBaseURLs(storeURL, apiURL, spyURL string) *Client {
	build := func(base string) *resty.Client {
		return resty.New().
			SetBaseURL(base).
			SetTimeout(20 * time.Second).
			SetRetryCount(3).
			SetRetryWaitTime(500 * time.Millisecond).
			SetRetryMaxWaitTime(8 * time.Second).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				if err != nil {
					return true
				}
				return r.StatusCode() == 429 || r.StatusCode() >= 500
			})
	}
	return &Client{
		store:   build(storeURL),
		api:     build(apiURL),
		spy:     build(spyURL),
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
	}
}

type appDetailsEntry struct {
	Success bool `json:"success"`
	Data    struct {
		Categories []struct {
			ID          int    `json:"id"`
			Description string `json:"description"`
		} `json:"categories"`
	} `json:"data"`
}

// CoopMetadata classifies an app as co-op from its store categories and
// returns the matched category descriptions as display tags.
func (c *Client) CoopMetadata(ctx context.Context, appID string) (bool, []string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return false, nil, err
	}
	resp, err := c.store.R().SetContext(ctx).
		SetQueryParams(map[string]string{"appids": appID, "l": "en", "cc": "us"}).
		Get("/api/appdetails")
	if err != nil {
		return false, nil, fmt.Errorf("appdetails %s: %w", appID, err)
	}
	if resp.IsError() {
		return false, nil, fmt.Errorf("appdetails %s: status %s", appID, resp.Status())
	}

	var payload map[string]appDetailsEntry
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return false, nil, fmt.Errorf("decode appdetails %s: %w", appID, err)
	}
	entry, ok := payload[appID]
	if !ok || !entry.Success {
		return false, nil, nil
	}

	var tags []string
	isCoop := false
	for _, cat := range entry.Data.Categories {
		desc := strings.ToLower(strings.TrimSpace(cat.Description))
		if coopCategoryKeywords[desc] || strings.Contains(desc, "co-op") {
			isCoop = true
			tags = append(tags, strings.TrimSpace(cat.Description))
		}
	}
	return isCoop, tags, nil
}

type appReviewsResponse struct {
	Success      int `json:"success"`
	QuerySummary struct {
		ReviewScoreDesc string `json:"review_score_desc"`
		TotalPositive   int    `json:"total_positive"`
		TotalReviews    int    `json:"total_reviews"`
	} `json:"query_summary"`
}

// ReviewSummary fetches the aggregate review stats for an app. All three
// return values are optional; an app with no reviews yields empty/nils.
func (c *Client) ReviewSummary(ctx context.Context, appID string) (string, *int, *int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", nil, nil, err
	}
	resp, err := c.store.R().SetContext(ctx).
		SetQueryParams(map[string]string{
			"json":          "1",
			"language":      "all",
			"purchase_type": "all",
			"num_per_page":  "0",
		}).
		Get("/appreviews/" + appID)
	if err != nil {
		return "", nil, nil, fmt.Errorf("appreviews %s: %w", appID, err)
	}
	if resp.IsError() {
		return "", nil, nil, fmt.Errorf("appreviews %s: status %s", appID, resp.Status())
	}

	var payload appReviewsResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return "", nil, nil, fmt.Errorf("decode appreviews %s: %w", appID, err)
	}
	qs := payload.QuerySummary
	if payload.Success != 1 || qs.TotalReviews <= 0 {
		return "", nil, nil, nil
	}

	pct := int(math.Round(float64(qs.TotalPositive) / float64(qs.TotalReviews) * 100))
	count := qs.TotalReviews
	return qs.ReviewScoreDesc, &pct, &count, nil
}

type playerCountResponse struct {
	Response struct {
		PlayerCount int `json:"player_count"`
		Result      int `json:"result"`
	} `json:"response"`
}

// PlayerCount returns the current concurrent player count, best effort.
func (c *Client) PlayerCount(ctx context.Context, appID string) (*int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.api.R().SetContext(ctx).
		SetQueryParam("appid", appID).
		Get("/ISteamUserStats/GetNumberOfCurrentPlayers/v1/")
	if err != nil {
		return nil, fmt.Errorf("player count %s: %w", appID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("player count %s: status %s", appID, resp.Status())
	}

	var payload playerCountResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("decode player count %s: %w", appID, err)
	}
	if payload.Response.Result != 1 {
		return nil, nil
	}
	count := payload.Response.PlayerCount
	return &count, nil
}

type steamSpyResponse struct {
	Owners string `json:"owners"`
	CCU    int    `json:"ccu"`
}

// OwnersEstimate returns SteamSpy's ownership range for an app, best
// effort. An empty string means no estimate.
func (c *Client) OwnersEstimate(ctx context.Context, appID string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	resp, err := c.spy.R().SetContext(ctx).
		SetQueryParams(map[string]string{"request": "appdetails", "appid": appID}).
		Get("/api.php")
	if err != nil {
		return "", fmt.Errorf("steamspy %s: %w", appID, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("steamspy %s: status %s", appID, resp.Status())
	}

	var payload steamSpyResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return "", fmt.Errorf("decode steamspy %s: %w", appID, err)
	}
	return strings.TrimSpace(payload.Owners), nil
}
