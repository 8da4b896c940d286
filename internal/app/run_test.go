package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/PKHarsimran/discord-coop-game-deals-bot/internal/cheapshark"
	"github.com/PKHarsimran/discord-coop-game-deals-bot/internal/config"
	"github.com/PKHarsimran/discord-coop-game-deals-bot/internal/notifier"
	"github.com/PKHarsimran/discord-coop-game-deals-bot/internal/steam"
)

// upstream fakes every external endpoint one run touches.
func upstream(t *testing.T, webhookCalls *int32, lastPayload *map[string]any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/api/1.0/stores":
			w.Write([]byte(`[{"storeID": "1", "storeName": "Steam", "isActive": 1,
				"images": {"icon": "/img/stores/icons/0.png"}}]`))
		case r.URL.Path == "/api/1.0/deals":
			w.Write([]byte(`[{"dealID": "d1", "title": "Deep Rock Galactic", "salePrice": "4.99",
				"normalPrice": "29.99", "savings": "83.36", "storeID": "1", "steamAppID": "548430"}]`))
		case r.URL.Path == "/api/featuredcategories":
			w.Write([]byte(`{"specials": {"items": []}}`))
		case r.URL.Path == "/api/appdetails":
			w.Write([]byte(`{"548430": {"success": true, "data": {"categories": [
				{"id": 9, "description": "Co-op"}, {"id": 38, "description": "Online Co-op"}]}}}`))
		case strings.HasPrefix(r.URL.Path, "/appreviews/"):
			w.Write([]byte(`{"success": 1, "query_summary": {"review_score_desc": "Overwhelmingly Positive",
				"total_positive": 970, "total_reviews": 1000}}`))
		case strings.HasPrefix(r.URL.Path, "/ISteamUserStats/"):
			w.Write([]byte(`{"response": {"player_count": 41000, "result": 1}}`))
		case r.URL.Path == "/api.php":
			w.Write([]byte(`{"owners": "5,000,000 .. 10,000,000", "ccu": 39000}`))
		case r.URL.Path == "/webhook":
			atomic.AddInt32(webhookCalls, 1)
			var payload map[string]any
			if err := json.NewDecoder(r.Body).Decode(&payload); err == nil {
				*lastPayload = payload
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func testClients(serverURL string) Clients {
	return Clients{
		CheapShark: cheapshark.NewWithBaseURL(serverURL),
		Steam:      steam.NewWithBaseURLs(serverURL, serverURL, serverURL),
		Notifier:   notifier.New(serverURL+"/webhook", "Co-op Deals Bot"),
	}
}

func testRunSettings(t *testing.T, serverURL string) *config.Settings {
	dir := t.TempDir()
	return &config.Settings{
		DiscordWebhookURL:          serverURL + "/webhook",
		DiscordWebhookUsername:     "Co-op Deals Bot",
		MaxPrice:                   10.00,
		MaxPostsPerRun:             10,
		IncludeSteamDirectSpecials: true,
		FranchiseDedupe:            true,
		FranchiseDedupeWords:       2,
		PriceSweetSpot:             5.00,
		DigestMode:                 "daily",
		ProfileName:                "default",
		PostedCacheFile:            filepath.Join(dir, "posted_deals.json"),
		SteamCacheFile:             filepath.Join(dir, "steam_cache.json"),
		EmbedColor:                 0x57F287,
	}
}

func TestRun_EndToEnd(t *testing.T) {
	var webhookCalls int32
	var lastPayload map[string]any
	server := upstream(t, &webhookCalls, &lastPayload)

	cfg := testRunSettings(t, server.URL)
	if err := Run(context.Background(), cfg, testClients(server.URL)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if atomic.LoadInt32(&webhookCalls) != 1 {
		t.Fatalf("Expected exactly one webhook call, got %d", webhookCalls)
	}
	embeds, ok := lastPayload["embeds"].([]any)
	if !ok || len(embeds) != 1 {
		t.Fatalf("Expected one embed, got %v", lastPayload["embeds"])
	}
	content, _ := lastPayload["content"].(string)
	if !strings.Contains(content, "Tonight's Co-op Deals") {
		t.Errorf("Unexpected content %q", content)
	}

	// Both ledger files must exist after a successful publish.
	if _, err := os.Stat(cfg.PostedCacheFile); err != nil {
		t.Errorf("Posted ledger missing: %v", err)
	}
	if _, err := os.Stat(cfg.SteamCacheFile); err != nil {
		t.Errorf("Metadata cache missing: %v", err)
	}
}

func TestRun_SecondRunPostsNothing(t *testing.T) {
	var webhookCalls int32
	var lastPayload map[string]any
	server := upstream(t, &webhookCalls, &lastPayload)

	cfg := testRunSettings(t, server.URL)
	clients := testClients(server.URL)

	if err := Run(context.Background(), cfg, clients); err != nil {
		t.Fatalf("First Run() error = %v", err)
	}
	if err := Run(context.Background(), cfg, clients); err != nil {
		t.Fatalf("Second Run() error = %v", err)
	}

	if got := atomic.LoadInt32(&webhookCalls); got != 1 {
		t.Errorf("Expected the second run to post nothing, webhook calls = %d", got)
	}
}

func TestRun_WebhookFailureLeavesLedgerUntouched(t *testing.T) {
	var webhookCalls int32
	var lastPayload map[string]any
	server := upstream(t, &webhookCalls, &lastPayload)

	cfg := testRunSettings(t, server.URL)
	clients := testClients(server.URL)
	// Point the notifier at an endpoint that rejects the post outright.
	clients.Notifier = notifier.New(server.URL+"/missing-webhook", "bot")

	if err := Run(context.Background(), cfg, clients); err == nil {
		t.Fatal("Expected Run to fail when the webhook rejects the post")
	}

	if _, err := os.Stat(cfg.PostedCacheFile); !os.IsNotExist(err) {
		t.Error("Posted ledger must not be written after a failed publish")
	}
	// The metadata cache is still worth keeping.
	if _, err := os.Stat(cfg.SteamCacheFile); err != nil {
		t.Errorf("Metadata cache should be saved regardless of publish outcome: %v", err)
	}
}
