package ratesource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	client := NewClient(Options{
		BaseURL:           srv.URL,
		QuoteCurrency:     "ngn",
		ReferenceCurrency: "usd",
		Timeout:           time.Second,
		UserAgent:         "test",
	}, noopLogger())
	return client, srv.Close
}

func TestFetchRatesSuccess(t *testing.T) {
	client, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/simple/price" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if ids := r.URL.Query().Get("ids"); ids != "bitcoin,solana" {
			t.Fatalf("unexpected ids %q", ids)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"bitcoin": {"ngn": 98000000.5, "usd": 62000.25, "ngn_24h_change": -1.2},
			"solana":  {"ngn": 230000, "usd": 145.5}
		}`))
	})
	defer done()

	rates, err := client.FetchRates(context.Background(), []AssetID{"bitcoin", "solana"})
	if err != nil {
		t.Fatalf("fetch should succeed: %v", err)
	}

	btc := rates["bitcoin"]
	if !btc.QuotePrice.Equal(decimal.RequireFromString("98000000.5")) {
		t.Fatalf("unexpected quote price %s", btc.QuotePrice)
	}
	if !btc.ReferencePrice.Equal(decimal.RequireFromString("62000.25")) {
		t.Fatalf("unexpected reference price %s", btc.ReferencePrice)
	}
	if btc.Change24h == nil || !btc.Change24h.Equal(decimal.RequireFromString("-1.2")) {
		t.Fatalf("unexpected 24h change %v", btc.Change24h)
	}
	if rates["solana"].Change24h != nil {
		t.Fatal("omitted 24h change should stay nil")
	}
}

func TestFetchRatesMissingAsset(t *testing.T) {
	client, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"bitcoin": {"ngn": 1, "usd": 2}}`))
	})
	defer done()

	rates, err := client.FetchRates(context.Background(), []AssetID{"bitcoin", "solana"})

	var missing *MissingAssetsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingAssetsError, got %v", err)
	}
	if len(missing.Missing) != 1 || missing.Missing[0] != "solana" {
		t.Fatalf("unexpected missing set %v", missing.Missing)
	}
	if _, ok := rates["bitcoin"]; !ok {
		t.Fatal("present assets must still be returned alongside the error")
	}
}

func TestFetchRatesMalformedField(t *testing.T) {
	client, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"bitcoin": {"usd": 2}}`))
	})
	defer done()

	if _, err := client.FetchRates(context.Background(), []AssetID{"bitcoin"}); err == nil {
		t.Fatal("missing quote field should be an error")
	}
}

func TestFetchRatesHTTPError(t *testing.T) {
	client, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"status": {"error_message": "rate limited"}}`))
	})
	defer done()

	if _, err := client.FetchRates(context.Background(), []AssetID{"bitcoin"}); err == nil {
		t.Fatal("non-200 should be an error")
	}
}

func TestFetchRatesNoAssets(t *testing.T) {
	client := NewClient(Options{}, noopLogger())
	if _, err := client.FetchRates(context.Background(), nil); err == nil {
		t.Fatal("empty asset set should be rejected")
	}
}

func TestFetchHistorySuccess(t *testing.T) {
	client, done := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/bitcoin/market_chart" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if days := r.URL.Query().Get("days"); days != "7" {
			t.Fatalf("unexpected days %q", days)
		}
		_, _ = w.Write([]byte(`{"prices": [[1700000000000, 61000.5], [1700000300000, 61250.75]]}`))
	})
	defer done()

	points, err := client.FetchHistory(context.Background(), "bitcoin", 7)
	if err != nil {
		t.Fatalf("history fetch should succeed: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if points[0].Price != 61000.5 {
		t.Fatalf("unexpected first price %v", points[0].Price)
	}
	if points[0].TS != time.UnixMilli(1700000000000).UTC() {
		t.Fatalf("unexpected first timestamp %v", points[0].TS)
	}
}

func TestFetchHistoryValidation(t *testing.T) {
	client := NewClient(Options{}, noopLogger())
	if _, err := client.FetchHistory(context.Background(), "", 7); err == nil {
		t.Fatal("empty asset should be rejected")
	}
	if _, err := client.FetchHistory(context.Background(), "bitcoin", 0); err == nil {
		t.Fatal("non-positive lookback should be rejected")
	}
}
