package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PKHarsimran/discord-coop-game-deals-bot/internal/models"
	"github.com/PKHarsimran/discord-coop-game-deals-bot/internal/util"
)

const (
	// Discord webhook hard limits.
	MaxContentChars  = 2000
	MaxEmbedsPerPost = 10
	maxTitleChars    = 256
	maxDescChars     = 4096

	webhookRetries = 2
)

type Client struct {
	webhookURL string
	username   string
	client     *http.Client
}

func New(webhookURL, username string) *Client {
	return &Client{
		webhookURL: webhookURL,
		username:   username,
		client:     &http.Client{Timeout: 20 * time.Second},
	}
}

// Digest is one outbound notification: a composed message plus up to ten
// deal cards.
type Digest struct {
	Deals   []models.Deal
	Title   string
	Metrics string
	Color   int
	RoleID  string // "" means no role ping
}

// Internal structures
type webhookPayload struct {
	Content         string          `json:"content,omitempty"`
	Username        string          `json:"username,omitempty"`
	Embeds          []embed         `json:"embeds"`
	AllowedMentions allowedMentions `json:"allowed_mentions"`
}

// allowedMentions restricts pings to the explicitly listed roles; an
// empty Parse list disables everything else.
type allowedMentions struct {
	Parse []string `json:"parse"`
	Roles []string `json:"roles,omitempty"`
}

type embedThumbnail struct {
	URL string `json:"url,omitempty"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type embedFooter struct {
	Text string `json:"text,omitempty"`
}

type embed struct {
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	URL         string         `json:"url,omitempty"`
	Timestamp   string         `json:"timestamp,omitempty"`
	Color       int            `json:"color,omitempty"`
	Thumbnail   embedThumbnail `json:"thumbnail,omitempty"`
	Fields      []embedField   `json:"fields,omitempty"`
	Footer      embedFooter    `json:"footer,omitempty"`
}

// PostDigest sends the digest in a single webhook call. Cards beyond the
// Discord embed limit are dropped, never batched into a second call. Any
// transport failure is returned so the run can abort the publish.
func (c *Client) PostDigest(ctx context.Context, d Digest) error {
	if c.webhookURL == "" {
		return fmt.Errorf("webhook URL is empty")
	}

	title := d.Title
	if d.RoleID != "" {
		title = fmt.Sprintf("<@&%s> %s", d.RoleID, title)
	}

	payload := webhookPayload{
		Content:         ComposeContent(title, d.Metrics),
		Username:        c.username,
		AllowedMentions: allowedMentions{Parse: []string{}},
	}
	if d.RoleID != "" {
		payload.AllowedMentions.Roles = []string{d.RoleID}
	}

	deals := d.Deals
	if len(deals) > MaxEmbedsPerPost {
		deals = deals[:MaxEmbedsPerPost]
	}
	payload.Embeds = make([]embed, 0, len(deals))
	for _, deal := range deals {
		payload.Embeds = append(payload.Embeds, formatDealToEmbed(deal, d.Color))
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	return util.RetryWithBackoff(ctx, webhookRetries, func(attempt int) error {
		return c.post(ctx, body)
	})
}

func (c *Client) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, "POST", c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", util.ErrPermanent)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return fmt.Errorf("discord status: %s, body: %s", resp.Status, string(respBody))
	}
	return fmt.Errorf("discord status: %s, body: %s: %w", resp.Status, string(respBody), util.ErrPermanent)
}

// ComposeContent joins the title line and the metrics block under the
// Discord content limit. The title wins: metrics are trimmed or dropped
// first, and only a title that alone exceeds the limit gets truncated.
func ComposeContent(title, metrics string) string {
	if len(title) >= MaxContentChars {
		return title[:MaxContentChars]
	}
	if metrics == "" {
		return title
	}
	content := title + "\n" + metrics
	if len(content) > MaxContentChars {
		content = content[:MaxContentChars]
	}
	return content
}

// DigestTitle builds the mode-specific title line. A non-default profile
// name is shown as a bracketed prefix.
func DigestTitle(mode string, maxPrice float64, profile string) string {
	var title string
	switch mode {
	case "weekend":
		title = fmt.Sprintf("🎉 **Weekend Co-op Picks (Under $%.0f)**", maxPrice)
	case "budget":
		title = fmt.Sprintf("💸 **Ultra-Budget Co-op Picks (Under $%.0f)**", maxPrice)
	default:
		title = fmt.Sprintf("🎮 **Tonight's Co-op Deals (Under $%.0f)**", maxPrice)
	}
	if profile != "" && profile != "default" {
		title = fmt.Sprintf("[%s] %s", profile, title)
	}
	return title
}

func formatDealToEmbed(deal models.Deal, color int) embed {
	mainURL := deal.SteamURL()
	if mainURL == "" {
		mainURL = deal.CheapSharkURL()
	}

	lines := []string{
		fmt.Sprintf("**$%.2f** ~~$%.2f~~  (**-%.0f%%**)", deal.SalePrice, deal.NormalPrice, deal.SavingsPct),
		fmt.Sprintf("Store: **%s**", deal.StoreName),
	}
	if len(deal.CoopTags) > 0 {
		lines = append(lines, "Co-op: "+strings.Join(deal.CoopTags, ", "))
	}
	if line := reviewLine(deal); line != "" {
		lines = append(lines, line)
	}
	if deal.PlayerCount != nil {
		lines = append(lines, fmt.Sprintf("Playing now: %d", *deal.PlayerCount))
	}
	if deal.Reason != "" {
		lines = append(lines, "Why: "+deal.Reason)
	}

	description := strings.Join(lines, "\n")
	if len(description) > maxDescChars {
		description = description[:maxDescChars]
	}

	linksValue := fmt.Sprintf("[Buy deal](%s)", deal.CheapSharkURL())
	if steamURL := deal.SteamURL(); steamURL != "" {
		linksValue += fmt.Sprintf(" • [Steam](%s)", steamURL)
	}

	var thumbnail embedThumbnail
	if deal.Thumb != "" {
		thumbnail.URL = deal.Thumb
	} else if deal.StoreIcon != "" {
		thumbnail.URL = deal.StoreIcon
	}

	title := deal.Title
	if len(title) > maxTitleChars {
		title = title[:maxTitleChars]
	}

	return embed{
		Title:       title,
		URL:         mainURL,
		Description: description,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Color:       color,
		Thumbnail:   thumbnail,
		Fields: []embedField{
			{Name: "Links", Value: linksValue},
		},
		Footer: embedFooter{Text: "Source: " + deal.SourceLabel},
	}
}

// reviewLine formats the review stats; the shape depends on which pieces
// are known.
func reviewLine(deal models.Deal) string {
	switch {
	case deal.ReviewSummary != "" && deal.ReviewPercent != nil && deal.ReviewCount != nil:
		return fmt.Sprintf("Reviews: %s (%d%% of %d)", deal.ReviewSummary, *deal.ReviewPercent, *deal.ReviewCount)
	case deal.ReviewSummary != "":
		return "Reviews: " + deal.ReviewSummary
	case deal.ReviewPercent != nil:
		return fmt.Sprintf("Reviews: %d%% positive", *deal.ReviewPercent)
	default:
		return ""
	}
}
