package backend

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cardboard/internal/api"
	"cardboard/internal/errors"
)

const stateJSON = `{
	"board_name": "Home",
	"cards": {"1": {"id": 1, "text": "milk", "tags": ["shop:grocer"]}, "2": {"id": 2, "text": "bread", "tags": []}},
	"card_order": [2, 1, 9],
	"categories": ["shop"],
	"tags": ["shop:grocer"],
	"interaction_state": {"selection": {"card_id": 2, "tag": null}, "filter": ""},
	"current_category_view": null
}`

func TestClient_FetchState(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/state" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, stateJSON)
	}))
	defer server.Close()

	c := NewClient(server.URL+"/api/", 2*time.Second, 0)
	st, err := c.FetchState(context.Background())
	if err != nil {
		t.Fatalf("FetchState: %v", err)
	}
	if st.BoardName != "Home" || len(st.Cards) != 2 {
		t.Errorf("unexpected state %+v", st)
	}
	if id := st.SelectedCardID(); id == nil || *id != 2 {
		t.Errorf("selection = %v", id)
	}
}

func TestClient_PerformAction(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/action" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := NewClient(server.URL+"/api", 2*time.Second, 0)
	if err := c.PerformAction(context.Background(), api.AddTagToCurrentCard{Tag: "shop:baker"}); err != nil {
		t.Fatalf("PerformAction: %v", err)
	}
	if gotBody != `{"type":"AddTagToCurrentCard","tag":"shop:baker"}` {
		t.Errorf("server got %s", gotBody)
	}
}

func TestClient_PerformAction_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no card selected", http.StatusConflict)
	}))
	defer server.Close()

	c := NewClient(server.URL, 2*time.Second, 0)
	err := c.PerformAction(context.Background(), api.DeleteCurrentCard{})

	var userErr *errors.UserError
	if !stderrors.As(err, &userErr) || userErr.Title != "❌ Action Failed" {
		t.Fatalf("expected action UserError, got %v", err)
	}
	if !strings.Contains(err.Error(), "HTTP 409: no card selected") {
		t.Errorf("cause not reported: %v", err)
	}
}

func TestClient_FetchState_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := NewClient(url, time.Second, 0)
	_, err := c.FetchState(context.Background())

	var userErr *errors.UserError
	if !stderrors.As(err, &userErr) || userErr.Title != "❌ Board Server Unreachable" {
		t.Fatalf("expected connection UserError, got %v", err)
	}
}

func TestClient_Probe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, stateJSON)
	}))
	defer server.Close()

	c := NewClient(server.URL, 2*time.Second, 1)
	res, err := c.Probe(context.Background())
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if res.Cards != 2 || res.BoardName != "Home" {
		t.Errorf("unexpected probe %+v", res)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].CardID != 9 {
		t.Errorf("expected dangling card 9 warning, got %v", res.Warnings)
	}
	if !strings.Contains(res.String(), `board "Home"`) {
		t.Errorf("String() = %q", res.String())
	}
}

func TestNewClient_Defaults(t *testing.T) {
	if c := NewClient("", 0, 0); c.BaseURL() != DefaultBaseURL {
		t.Errorf("BaseURL() = %q", c.BaseURL())
	}
}
