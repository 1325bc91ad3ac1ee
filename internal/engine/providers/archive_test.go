package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/anatolykoptev/go_media/internal/engine"
)

const sampleArchiveJSON = `{
	"response": {
		"numFound": 4,
		"docs": [
			{"identifier": "apollo11_launch", "title": "Apollo 11 Launch", "mediatype": "movies", "year": "1969"},
			{"identifier": "moon_atlas", "title": "Moon Atlas", "mediatype": "image", "year": 1971},
			{"identifier": "lunar_survey", "title": "Lunar Survey", "mediatype": "movies", "year": ["1972", "1973"]},
			{"title": "Orphan doc without identifier", "mediatype": "image"}
		]
	}
}`

func TestParseArchiveResponse(t *testing.T) {
	records, err := parseArchiveResponse([]byte(sampleArchiveJSON), "run-3")
	if err != nil {
		t.Fatalf("parseArchiveResponse error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	r := records[0]
	if r.URL != "https://archive.org/details/apollo11_launch" {
		t.Errorf("url = %q", r.URL)
	}
	if r.ThumbnailURL != "https://archive.org/services/img/apollo11_launch" {
		t.Errorf("thumbnail = %q", r.ThumbnailURL)
	}
	if r.Provider != NameArchive {
		t.Errorf("provider = %q, want archive", r.Provider)
	}
	if r.RunID != "run-3" {
		t.Errorf("runID = %q", r.RunID)
	}

	// Year arrives as a string, a number, or an array depending on the item.
	for i, want := range []string{"1969", "1971", "1972"} {
		if got := records[i].PublishedAt; got != want {
			t.Errorf("records[%d].PublishedAt = %q, want %q", i, got, want)
		}
	}
}

func TestParseArchiveResponseError(t *testing.T) {
	if _, err := parseArchiveResponse([]byte(`not json`), ""); err == nil {
		t.Error("expected error for non-JSON payload")
	}
}

func TestArchiveSearch(t *testing.T) {
	var gotQuery string
	var gotFields []string
	var gotRows, gotOutput string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/advancedsearch.php" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		gotQuery = q.Get("q")
		gotFields = q["fl[]"]
		gotRows = q.Get("rows")
		gotOutput = q.Get("output")
		fmt.Fprint(w, sampleArchiveJSON)
	}))
	defer srv.Close()

	p := NewArchive(ArchiveConfig{BaseURL: srv.URL}, srv.Client())
	q := engine.Query{
		Topic: "moon landing",
		Dates: engine.ParseSearchDates("2020-2022"),
		Limit: 15,
		RunID: "run-3",
	}
	records, err := p.Search(context.Background(), q)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("expected 3 records, got %d", len(records))
	}

	for _, want := range []string{
		`title:("moon landing")`,
		`description:("moon landing")`,
		`mediatype:(movies)`,
		`mediatype:(image)`,
		`year:[2020 TO 2022]`,
	} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}
	if want := []string{"identifier", "title", "mediatype", "year"}; !reflect.DeepEqual(gotFields, want) {
		t.Errorf("fl[] = %v, want %v", gotFields, want)
	}
	if gotRows != "15" {
		t.Errorf("rows = %q, want 15", gotRows)
	}
	if gotOutput != "json" {
		t.Errorf("output = %q, want json", gotOutput)
	}
}

func TestArchiveSearchNoDates(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		fmt.Fprint(w, `{"response": {"docs": []}}`)
	}))
	defer srv.Close()

	p := NewArchive(ArchiveConfig{BaseURL: srv.URL}, srv.Client())
	if _, err := p.Search(context.Background(), engine.Query{Topic: "moon", Limit: 5}); err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if strings.Contains(gotQuery, "year:") {
		t.Errorf("query %q should not carry a year clause", gotQuery)
	}
}

func TestArchiveSearchEscapesQuotes(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		fmt.Fprint(w, `{"response": {"docs": []}}`)
	}))
	defer srv.Close()

	p := NewArchive(ArchiveConfig{BaseURL: srv.URL}, srv.Client())
	if _, err := p.Search(context.Background(), engine.Query{Topic: `say "moon"`, Limit: 5}); err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if !strings.Contains(gotQuery, `title:("say \"moon\"")`) {
		t.Errorf("query %q does not escape embedded quotes", gotQuery)
	}
}
