package models

import "fmt"

// Deal represents one normalized discount listing from either catalog.
// The validated fields are what a candidate must carry to enter the
// pipeline; the fields at the bottom are attached later from the Steam
// metadata cache.
type Deal struct {
	DealID      string  `json:"dealID" validate:"required"`
	Title       string  `json:"title" validate:"required"`
	SalePrice   float64 `json:"salePrice" validate:"gt=0"`
	NormalPrice float64 `json:"normalPrice" validate:"gte=0"`
	SavingsPct  float64 `json:"savingsPct" validate:"gte=0"`
	StoreID     string  `json:"storeID"`
	StoreName   string  `json:"storeName"`
	StoreIcon   string  `json:"storeIcon,omitempty" validate:"omitempty,url"`
	SteamAppID  string  `json:"steamAppID,omitempty"`
	Thumb       string  `json:"thumb,omitempty" validate:"omitempty,url"`
	BuyURL      string  `json:"buyURL,omitempty" validate:"omitempty,url"`
	SourceLabel string  `json:"sourceLabel"`

	// Enrichment fields, populated by the pipeline. Review and popularity
	// numbers are pointers so "unknown" stays distinguishable from zero.
	CoopTags       []string `json:"coopTags,omitempty"`
	ReviewSummary  string   `json:"reviewSummary,omitempty"`
	ReviewPercent  *int     `json:"reviewPercent,omitempty"`
	ReviewCount    *int     `json:"reviewCount,omitempty"`
	PlayerCount    *int     `json:"playerCount,omitempty"`
	OwnersEstimate string   `json:"ownersEstimate,omitempty"`
	Reason         string   `json:"reason,omitempty"`
}

// CheapSharkURL is the canonical redirect link for the deal.
func (d Deal) CheapSharkURL() string {
	return fmt.Sprintf("https://www.cheapshark.com/redirect?dealID=%s", d.DealID)
}

// DealURL is the preferred purchase link.
func (d Deal) DealURL() string {
	if d.BuyURL != "" {
		return d.BuyURL
	}
	return d.CheapSharkURL()
}

// SteamURL is the Steam store page, or "" when no app id is attached.
func (d Deal) SteamURL() string {
	if d.SteamAppID == "" {
		return ""
	}
	return fmt.Sprintf("https://store.steampowered.com/app/%s/", d.SteamAppID)
}
