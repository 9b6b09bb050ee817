package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gorilla/mux"

	"venuedir/pkg/cursor"
	"venuedir/pkg/fingerprint"
	"venuedir/pkg/models"
	"venuedir/pkg/pagination"
	"venuedir/pkg/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	codec, err := cursor.New("handler-test-secret")
	if err != nil {
		t.Fatalf("cursor.New: %v", err)
	}
	pager := pagination.New(codec, fingerprint.New(), pagination.WithPageSizes(20, 100))

	r := mux.NewRouter()
	RegisterVenues(r.PathPrefix("/v1").Subrouter(), &VenueHandler{Pager: pager, MaxBodyBytes: 1 << 20})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func createVenue(t *testing.T, srv *httptest.Server, v models.Venue) models.Venue {
	t.Helper()
	body, _ := json.Marshal(v)
	resp, err := http.Post(srv.URL+"/v1/venues", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /v1/venues: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /v1/venues: status %d", resp.StatusCode)
	}
	var out models.Venue
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode created venue: %v", err)
	}
	if out.ID <= 0 || out.CreatedTS <= 0 {
		t.Fatalf("created venue missing id/timestamp: %+v", out)
	}
	return out
}

func listVenues(t *testing.T, srv *httptest.Server, params url.Values) pagination.Page[models.Venue] {
	t.Helper()
	resp, err := http.Get(srv.URL + "/v1/venues?" + params.Encode())
	if err != nil {
		t.Fatalf("GET /v1/venues: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /v1/venues: status %d", resp.StatusCode)
	}
	var page pagination.Page[models.Venue]
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	return page
}

func TestCreateGetDeleteVenue(t *testing.T) {
	srv := newTestServer(t)
	v := createVenue(t, srv, models.Venue{Name: "Blue Door", City: "miami", Categories: []string{"food"}, Rating: 4.2})

	resp, err := http.Get(fmt.Sprintf("%s/v1/venues/%d", srv.URL, v.ID))
	if err != nil {
		t.Fatalf("GET venue: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET venue: status %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/v1/venues/%d", srv.URL, v.ID), nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE venue: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE venue: status %d", resp.StatusCode)
	}

	// soft-deleted venues are invisible
	resp, err = http.Get(fmt.Sprintf("%s/v1/venues/%d", srv.URL, v.ID))
	if err != nil {
		t.Fatalf("GET deleted venue: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("GET deleted venue: status %d, want 404", resp.StatusCode)
	}
}

func TestCreateVenueValidation(t *testing.T) {
	srv := newTestServer(t)
	body, _ := json.Marshal(models.Venue{City: "miami"}) // no name
	resp, err := http.Post(srv.URL+"/v1/venues", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", resp.StatusCode)
	}
}

func TestListBadParams(t *testing.T) {
	srv := newTestServer(t)
	for _, qs := range []string{"direction=sideways", "limit=abc", "limit=-1", "sort=name_asc"} {
		resp, err := http.Get(srv.URL + "/v1/venues?" + qs)
		if err != nil {
			t.Fatalf("GET ?%s: %v", qs, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("?%s: status %d, want 400", qs, resp.StatusCode)
		}
	}
}

func TestListPaginatesWithCursor(t *testing.T) {
	srv := newTestServer(t)
	for i := 0; i < 5; i++ {
		createVenue(t, srv, models.Venue{Name: fmt.Sprintf("Pizza %d", i), City: "miami", Rating: 4})
	}

	params := url.Values{"search": {"pizza"}, "city": {"miami"}, "limit": {"2"}}
	page1 := listVenues(t, srv, params)
	if len(page1.Items) != 2 {
		t.Fatalf("page 1 items = %d, want 2", len(page1.Items))
	}
	if page1.NextCursor == "" {
		t.Fatalf("page 1 missing next cursor")
	}
	if page1.PrevCursor != "" {
		t.Fatalf("page 1 has a prev cursor")
	}

	params.Set("cursor", page1.NextCursor)
	page2 := listVenues(t, srv, params)
	if len(page2.Items) != 2 {
		t.Fatalf("page 2 items = %d, want 2", len(page2.Items))
	}
	if page2.PrevCursor == "" {
		t.Fatalf("page 2 missing prev cursor")
	}
	seen := map[int64]bool{}
	for _, v := range append(append([]models.Venue{}, page1.Items...), page2.Items...) {
		if seen[v.ID] {
			t.Fatalf("venue %d appeared on both pages", v.ID)
		}
		seen[v.ID] = true
	}

	// walking back from page 2 returns exactly page 1's rows
	params.Set("cursor", page2.PrevCursor)
	params.Set("direction", "prev")
	back := listVenues(t, srv, params)
	if len(back.Items) != 2 {
		t.Fatalf("prev page items = %d, want 2", len(back.Items))
	}
	for i := range back.Items {
		if back.Items[i].ID != page1.Items[i].ID {
			t.Fatalf("prev page ids %v differ from page 1", back.Items)
		}
	}
}

func TestListCursorCollapsesWhenFiltersChange(t *testing.T) {
	srv := newTestServer(t)
	for i := 0; i < 3; i++ {
		createVenue(t, srv, models.Venue{Name: fmt.Sprintf("Pizza %d", i), City: "miami"})
	}
	createVenue(t, srv, models.Venue{Name: "Sushi Place", City: "miami"})

	params := url.Values{"search": {"pizza"}, "limit": {"2"}}
	page1 := listVenues(t, srv, params)
	if page1.NextCursor == "" {
		t.Fatalf("expected a next cursor")
	}

	// same cursor with a different search: served as page one of the new
	// context, not a continuation and not an error
	fresh := listVenues(t, srv, url.Values{
		"search": {"sushi"}, "limit": {"2"}, "cursor": {page1.NextCursor},
	})
	if len(fresh.Items) != 1 || fresh.Items[0].Name != "Sushi Place" {
		t.Fatalf("expected a fresh sushi page, got %+v", fresh.Items)
	}
	if fresh.PrevCursor != "" {
		t.Fatalf("fresh page should have no prev cursor")
	}
}

func TestListTamperedCursorServesPageOne(t *testing.T) {
	srv := newTestServer(t)
	for i := 0; i < 3; i++ {
		createVenue(t, srv, models.Venue{Name: fmt.Sprintf("Venue %d", i), City: "miami"})
	}
	page1 := listVenues(t, srv, url.Values{"limit": {"2"}})

	mid := len(page1.NextCursor) / 2
	repl := byte('A')
	if page1.NextCursor[mid] == 'A' {
		repl = 'B'
	}
	tampered := page1.NextCursor[:mid] + string(repl) + page1.NextCursor[mid+1:]
	again := listVenues(t, srv, url.Values{"limit": {"2"}, "cursor": {tampered}})
	if len(again.Items) != len(page1.Items) {
		t.Fatalf("tampered cursor did not collapse to page one")
	}
	for i := range again.Items {
		if again.Items[i].ID != page1.Items[i].ID {
			t.Fatalf("tampered cursor changed the page contents")
		}
	}
}
