package mboum

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ziamudasar52-stack/deep-Bot/internal/models"
)

func newTestClient(url string) *Client {
	return NewClient(url, "test-key", 5*time.Second, 3, time.Millisecond)
}

func TestFetchTopMovers_ParsesAndDropsInvalid(t *testing.T) {
	var gotAuth, gotFilter string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotFilter = r.URL.Query().Get("filter")
		w.Header().Set("Content-Type", "application/json")
		// Mixed encodings: bare numbers, quoted numbers, and one row with
		// an unparseable volume that must be dropped.
		w.Write([]byte(`{"body": [
			{"symbol": "XYZ", "regularMarketPrice": 10.0, "regularMarketChangePercent": "6.0",
			 "regularMarketVolume": 50000, "bid": "199999", "bidSize": 100, "ask": 200000, "askSize": "10"},
			{"symbol": "BAD", "regularMarketPrice": 1.0, "regularMarketChangePercent": 2.0,
			 "regularMarketVolume": "not-a-number", "bid": 0, "bidSize": 0},
			{"symbol": "", "regularMarketPrice": 5.0}
		]}`))
	}))
	defer server.Close()

	quotes, err := newTestClient(server.URL).FetchTopMovers(context.Background(), 5)
	if err != nil {
		t.Fatalf("FetchTopMovers failed: %v", err)
	}

	if gotAuth != "test-key" {
		t.Errorf("Expected Authorization header, got %q", gotAuth)
	}
	if gotFilter != "day_gainers" {
		t.Errorf("Expected day_gainers filter, got %q", gotFilter)
	}

	if len(quotes) != 1 {
		t.Fatalf("Expected 1 valid quote after dropping bad rows, got %d", len(quotes))
	}
	q := quotes[0]
	if q.Symbol != "XYZ" {
		t.Errorf("Unexpected symbol %q", q.Symbol)
	}
	if !q.Bid.Equal(decimal.NewFromInt(199999)) {
		t.Errorf("Expected bid 199999, got %s", q.Bid)
	}
	if q.BidSize != 100 || q.Volume != 50000 || q.ChangePct != 6.0 {
		t.Errorf("Unexpected quote fields: %+v", q)
	}
}

func TestFetchInsiderTrades_MapsSides(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("symbol"); got != "XYZ" {
			t.Errorf("Expected symbol query XYZ, got %q", got)
		}
		w.Write([]byte(`{"body": [
			{"symbol": "XYZ", "insiderName": "DOE JANE", "transactionType": "Sale", "shares": "15000", "price": 12.5, "filingDate": "2024-01-05"},
			{"symbol": "XYZ", "transactionType": "Purchase", "shares": 2000},
			{"symbol": "XYZ", "transactionType": "Sale", "shares": "??"}
		]}`))
	}))
	defer server.Close()

	trades, err := newTestClient(server.URL).FetchInsiderTrades(context.Background(), "XYZ")
	if err != nil {
		t.Fatalf("FetchInsiderTrades failed: %v", err)
	}

	if len(trades) != 2 {
		t.Fatalf("Expected 2 valid trades, got %d", len(trades))
	}
	if trades[0].Side != models.SideSell || trades[0].Shares != 15000 {
		t.Errorf("Unexpected first trade: %+v", trades[0])
	}
	if trades[1].Side != models.SideBuy {
		t.Errorf("Purchase must map to BUY, got %s", trades[1].Side)
	}
}

func TestFetchHaltStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"body": [
			{"symbol": "HLT", "haltStatus": "H"},
			{"symbol": "OK", "haltStatus": ""}
		]}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)

	halted, err := c.FetchHaltStatus(context.Background(), "HLT")
	if err != nil {
		t.Fatalf("FetchHaltStatus failed: %v", err)
	}
	if !halted {
		t.Error("Expected HLT halted")
	}

	halted, err = c.FetchHaltStatus(context.Background(), "OK")
	if err != nil {
		t.Fatal(err)
	}
	if halted {
		t.Error("Expected OK not halted")
	}

	halted, err = c.FetchHaltStatus(context.Background(), "MISSING")
	if err != nil {
		t.Fatal(err)
	}
	if halted {
		t.Error("Absent record must mean not halted")
	}
}

func TestGet_RetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"body": []}`))
	}))
	defer server.Close()

	quotes, err := newTestClient(server.URL).FetchTopMovers(context.Background(), 5)
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
	if len(quotes) != 0 {
		t.Errorf("Expected empty result, got %d quotes", len(quotes))
	}
}

func TestGet_NoRetryOnClientError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL).FetchTopMovers(context.Background(), 5); err == nil {
		t.Error("Expected error on 401")
	}
	if attempts != 1 {
		t.Errorf("Client errors must not be retried, got %d attempts", attempts)
	}
}

func TestFlexNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
		ok   bool
	}{
		{`100`, 100, true},
		{`"100"`, 100, true},
		{`"100.0"`, 100, true},
		{`null`, 0, true},
		{`" 42 "`, 42, true},
		{`"abc"`, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var n flexNumber
			if err := n.UnmarshalJSON([]byte(tt.raw)); err != nil {
				t.Fatalf("UnmarshalJSON(%s) failed: %v", tt.raw, err)
			}
			got, err := n.Int64()
			if (err == nil) != tt.ok {
				t.Fatalf("Int64() error = %v, ok %v", err, tt.ok)
			}
			if tt.ok && got != tt.want {
				t.Errorf("Int64() = %d, want %d", got, tt.want)
			}
		})
	}
}
