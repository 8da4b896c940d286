package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/PKHarsimran/discord-coop-game-deals-bot/internal/models"
)

const steamStoreIcon = "https://store.cloudflare.steamstatic.com/public/shared/images/header/logo_steam.svg"

type featuredCategoriesResponse struct {
	Specials struct {
		Items []struct {
			ID                int    `json:"id"`
			Name              string `json:"name"`
			FinalPrice        int    `json:"final_price"`
			OriginalPrice     int    `json:"original_price"`
			DiscountPercent   int    `json:"discount_percent"`
			SmallCapsuleImage string `json:"small_capsule_image"`
		} `json:"items"`
	} `json:"specials"`
}

// FetchSpecials pulls the storefront's curated specials feed and converts
// it into deal candidates. Prices arrive in cents. Items without a name,
// without a positive sale price, or priced at or above the ceiling are
// skipped. Deal IDs are prefixed so they can never collide with
// CheapShark identifiers.
func (c *Client) FetchSpecials(ctx context.Context, upperPrice float64) ([]models.Deal, error) {
	resp, err := c.store.R().SetContext(ctx).
		SetQueryParams(map[string]string{"cc": "us", "l": "en"}).
		Get("/api/featuredcategories")
	if err != nil {
		return nil, fmt.Errorf("fetch steam specials: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch steam specials: status %s", resp.Status())
	}

	var payload featuredCategoriesResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("decode steam specials: %w", err)
	}

	var deals []models.Deal
	for _, item := range payload.Specials.Items {
		if item.ID == 0 {
			continue
		}
		salePrice := float64(item.FinalPrice) / 100
		normalPrice := salePrice
		if item.OriginalPrice > 0 {
			normalPrice = float64(item.OriginalPrice) / 100
		}
		if salePrice <= 0 || salePrice >= upperPrice {
			continue
		}
		title := strings.TrimSpace(item.Name)
		if title == "" {
			continue
		}

		appID := strconv.Itoa(item.ID)
		deal := models.Deal{
			DealID:      "steam-special-" + appID,
			Title:       title,
			SalePrice:   salePrice,
			NormalPrice: normalPrice,
			SavingsPct:  float64(item.DiscountPercent),
			StoreID:     "steam-direct",
			StoreName:   "Steam",
			StoreIcon:   steamStoreIcon,
			SteamAppID:  appID,
			Thumb:       strings.TrimSpace(item.SmallCapsuleImage),
			SourceLabel: "Steam",
		}
		deal.BuyURL = deal.SteamURL()
		deals = append(deals, deal)
	}
	return deals, nil
}
