package steam

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestStoreServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewWithBaseURLs(server.URL, server.URL, server.URL)
}

func TestCoopMetadata(t *testing.T) {
	client := newTestStoreServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/appdetails" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("appids") != "548430" {
			t.Errorf("Unexpected appids param %q", r.URL.Query().Get("appids"))
		}
		w.Write([]byte(`{"548430": {"success": true, "data": {"categories": [
			{"id": 2, "description": "Single-player"},
			{"id": 9, "description": "Co-op"},
			{"id": 38, "description": "Online Co-op"}
		]}}}`))
	})

	isCoop, tags, err := client.CoopMetadata(context.Background(), "548430")
	if err != nil {
		t.Fatalf("CoopMetadata() error = %v", err)
	}
	if !isCoop {
		t.Error("Expected co-op classification")
	}
	if len(tags) != 2 || tags[0] != "Co-op" || tags[1] != "Online Co-op" {
		t.Errorf("Tags = %v", tags)
	}
}

func TestCoopMetadata_LooseSubstringMatch(t *testing.T) {
	client := newTestStoreServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"1": {"success": true, "data": {"categories": [
			{"id": 99, "description": "Cross-Platform Co-op"}
		]}}}`))
	})

	isCoop, tags, err := client.CoopMetadata(context.Background(), "1")
	if err != nil {
		t.Fatalf("CoopMetadata() error = %v", err)
	}
	if !isCoop || len(tags) != 1 {
		t.Errorf("Expected loose \"co-op\" match, got %v %v", isCoop, tags)
	}
}

func TestCoopMetadata_NotCoop(t *testing.T) {
	client := newTestStoreServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"400": {"success": true, "data": {"categories": [
			{"id": 2, "description": "Single-player"}
		]}}}`))
	})

	isCoop, tags, err := client.CoopMetadata(context.Background(), "400")
	if err != nil {
		t.Fatalf("CoopMetadata() error = %v", err)
	}
	if isCoop || len(tags) != 0 {
		t.Errorf("Expected non-co-op, got %v %v", isCoop, tags)
	}
}

func TestCoopMetadata_UnknownApp(t *testing.T) {
	client := newTestStoreServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"555": {"success": false}}`))
	})

	isCoop, _, err := client.CoopMetadata(context.Background(), "555")
	if err != nil {
		t.Fatalf("CoopMetadata() error = %v", err)
	}
	if isCoop {
		t.Error("Expected unknown app to classify as not co-op")
	}
}

func TestReviewSummary(t *testing.T) {
	client := newTestStoreServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/appreviews/548430" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"success": 1, "query_summary": {
			"review_score_desc": "Overwhelmingly Positive",
			"total_positive": 970, "total_reviews": 1000
		}}`))
	})

	summary, pct, count, err := client.ReviewSummary(context.Background(), "548430")
	if err != nil {
		t.Fatalf("ReviewSummary() error = %v", err)
	}
	if summary != "Overwhelmingly Positive" {
		t.Errorf("Summary = %q", summary)
	}
	if pct == nil || *pct != 97 {
		t.Errorf("Percent = %v, want 97", pct)
	}
	if count == nil || *count != 1000 {
		t.Errorf("Count = %v, want 1000", count)
	}
}

func TestReviewSummary_NoReviews(t *testing.T) {
	client := newTestStoreServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": 1, "query_summary": {"review_score_desc": "No user reviews", "total_positive": 0, "total_reviews": 0}}`))
	})

	summary, pct, count, err := client.ReviewSummary(context.Background(), "1")
	if err != nil {
		t.Fatalf("ReviewSummary() error = %v", err)
	}
	if summary != "" || pct != nil || count != nil {
		t.Errorf("Expected all-unknown review data, got %q %v %v", summary, pct, count)
	}
}

func TestPlayerCount(t *testing.T) {
	client := newTestStoreServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response": {"player_count": 41250, "result": 1}}`))
	})

	count, err := client.PlayerCount(context.Background(), "548430")
	if err != nil {
		t.Fatalf("PlayerCount() error = %v", err)
	}
	if count == nil || *count != 41250 {
		t.Errorf("Count = %v, want 41250", count)
	}
}

func TestOwnersEstimate(t *testing.T) {
	client := newTestStoreServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"owners": "5,000,000 .. 10,000,000", "ccu": 39000}`))
	})

	owners, err := client.OwnersEstimate(context.Background(), "548430")
	if err != nil {
		t.Fatalf("OwnersEstimate() error = %v", err)
	}
	if owners != "5,000,000 .. 10,000,000" {
		t.Errorf("Owners = %q", owners)
	}
}

func TestFetchSpecials(t *testing.T) {
	client := newTestStoreServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/featuredcategories" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"specials": {"items": [
			{"id": 548430, "name": "Deep Rock Galactic", "final_price": 499,
			 "original_price": 2999, "discount_percent": 83,
			 "small_capsule_image": "https://example.com/drg_small.jpg"},
			{"id": 620, "name": "Portal 2", "final_price": 1499,
			 "original_price": 1999, "discount_percent": 25},
			{"id": 111, "name": "", "final_price": 199, "original_price": 999, "discount_percent": 80},
			{"id": 222, "name": "Free Weekend Thing", "final_price": 0,
			 "original_price": 999, "discount_percent": 100}
		]}}`))
	})

	deals, err := client.FetchSpecials(context.Background(), 10.0)
	if err != nil {
		t.Fatalf("FetchSpecials() error = %v", err)
	}

	// Portal 2 is above the ceiling, the unnamed and free items are
	// malformed.
	if len(deals) != 1 {
		t.Fatalf("Expected 1 surviving special, got %d: %v", len(deals), deals)
	}
	d := deals[0]
	if d.DealID != "steam-special-548430" {
		t.Errorf("Expected prefixed id, got %q", d.DealID)
	}
	if d.SalePrice != 4.99 || d.NormalPrice != 29.99 {
		t.Errorf("Cents not converted: %+v", d)
	}
	if d.SavingsPct != 83 {
		t.Errorf("SavingsPct = %v", d.SavingsPct)
	}
	if d.StoreID != "steam-direct" || d.StoreName != "Steam" || d.SourceLabel != "Steam" {
		t.Errorf("Store fields wrong: %+v", d)
	}
	if d.BuyURL != "https://store.steampowered.com/app/548430/" {
		t.Errorf("BuyURL = %q", d.BuyURL)
	}
}

func TestFetchSpecials_RejectsPriceAtCeiling(t *testing.T) {
	client := newTestStoreServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"specials": {"items": [
			{"id": 1, "name": "Exactly Ten Bucks", "final_price": 1000,
			 "original_price": 2000, "discount_percent": 50}
		]}}`))
	})

	deals, err := client.FetchSpecials(context.Background(), 10.0)
	if err != nil {
		t.Fatalf("FetchSpecials() error = %v", err)
	}
	if len(deals) != 0 {
		t.Errorf("A special priced exactly at the ceiling must be skipped, got %v", deals)
	}
}
