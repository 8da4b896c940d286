package cheapshark

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/PKHarsimran/discord-coop-game-deals-bot/internal/models"
	"github.com/PKHarsimran/discord-coop-game-deals-bot/internal/validator"
)

const (
	baseURL = "https://www.cheapshark.com"

	dealsPath  = "/api/1.0/deals"
	storesPath = "/api/1.0/stores"

	pageSize = 60
)

// Store is one entry of the CheapShark store directory.
type Store struct {
	StoreID   string `json:"storeID"`
	StoreName string `json:"storeName"`
	IsActive  int    `json:"isActive"`
	Images    struct {
		Banner string `json:"banner"`
		Logo   string `json:"logo"`
		Icon   string `json:"icon"`
	} `json:"images"`
}

// IconURL resolves the store's relative icon path to an absolute URL.
func (s Store) IconURL() string {
	if s.Images.Icon == "" {
		return ""
	}
	return baseURL + s.Images.Icon
}

// rawDeal mirrors the deals endpoint response, which carries numbers as
// strings.
type rawDeal struct {
	DealID      string `json:"dealID"`
	Title       string `json:"title"`
	SalePrice   string `json:"salePrice"`
	NormalPrice string `json:"normalPrice"`
	Savings     string `json:"savings"`
	StoreID     string `json:"storeID"`
	SteamAppID  string `json:"steamAppID"`
	Thumb       string `json:"thumb"`
}

type Client struct {
	http     *resty.Client
	validate *validator.Validator
}

// New builds a CheapShark client with a fixed per-call timeout and
// backoff-retry on transient upstream failures.
func New() *Client {
	return NewWithBaseURL(baseURL)
}

// NewWithBaseURL exists for tests pointing at a local server.
func NewWithBaseURL(url string) *Client {
	http := resty.New().
		SetBaseURL(url).
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
	return &Client{http: http, validate: validator.New()}
}

// FetchStores returns the store directory keyed by store id.
func (c *Client) FetchStores(ctx context.Context) (map[string]Store, error) {
	resp, err := c.http.R().SetContext(ctx).Get(storesPath)
	if err != nil {
		return nil, fmt.Errorf("fetch stores: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch stores: status %s", resp.Status())
	}

	var raw []Store
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return nil, fmt.Errorf("decode stores: %w", err)
	}

	stores := make(map[string]Store, len(raw))
	for _, s := range raw {
		if id := strings.TrimSpace(s.StoreID); id != "" {
			s.StoreID = id
			stores[id] = s
		}
	}
	return stores, nil
}

// FetchDeals queries the deals endpoint below the price ceiling and
// normalizes each record. Records missing an id, title or positive sale
// price are skipped; a transport failure is returned to the caller.
func (c *Client) FetchDeals(ctx context.Context, upperPrice float64, steamworksOnly bool, stores map[string]Store) ([]models.Deal, error) {
	params := map[string]string{
		"upperPrice": fmt.Sprintf("%.2f", upperPrice),
		"pageSize":   strconv.Itoa(pageSize),
		"onSale":     "1",
		"sortBy":     "Deal Rating",
		"desc":       "1",
	}
	if steamworksOnly {
		params["steamworks"] = "1"
	}
	if len(stores) > 0 {
		ids := make([]string, 0, len(stores))
		for id := range stores {
			ids = append(ids, id)
		}
		params["storeID"] = strings.Join(ids, ",")
	}

	resp, err := c.http.R().SetContext(ctx).SetQueryParams(params).Get(dealsPath)
	if err != nil {
		return nil, fmt.Errorf("fetch deals: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch deals: status %s", resp.Status())
	}

	var raw []rawDeal
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return nil, fmt.Errorf("decode deals: %w", err)
	}

	deals := make([]models.Deal, 0, len(raw))
	for _, item := range raw {
		deal, ok := c.normalize(item, stores)
		if !ok {
			continue
		}
		deals = append(deals, deal)
	}
	return deals, nil
}

func (c *Client) normalize(item rawDeal, stores map[string]Store) (models.Deal, bool) {
	storeID := strings.TrimSpace(item.StoreID)
	storeName := fmt.Sprintf("Store %s", storeID)
	var storeIcon string
	if st, ok := stores[storeID]; ok {
		if name := strings.TrimSpace(st.StoreName); name != "" {
			storeName = name
		}
		storeIcon = st.IconURL()
	}

	dealID := strings.TrimSpace(item.DealID)
	deal := models.Deal{
		DealID:      dealID,
		Title:       strings.TrimSpace(item.Title),
		SalePrice:   parsePrice(item.SalePrice),
		NormalPrice: parsePrice(item.NormalPrice),
		SavingsPct:  parsePrice(item.Savings),
		StoreID:     storeID,
		StoreName:   storeName,
		StoreIcon:   storeIcon,
		SteamAppID:  strings.TrimSpace(item.SteamAppID),
		Thumb:       strings.TrimSpace(item.Thumb),
		SourceLabel: "CheapShark",
	}
	deal.BuyURL = deal.CheapSharkURL()

	if err := c.validate.ValidateStruct(deal); err != nil {
		slog.Debug("Skipping malformed CheapShark record", "dealID", item.DealID, "error", err)
		return models.Deal{}, false
	}
	return deal, true
}

func parsePrice(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
