package goupi_test

import (
	"strings"
	"testing"

	"goupi/internal/goupi"
)

func names(records []goupi.PostRecord) string {
	var out []string
	for _, r := range records {
		out = append(out, r.Name)
	}
	return strings.Join(out, ",")
}

func TestSortRecords(t *testing.T) {
	tests := []struct {
		name    string
		records []goupi.PostRecord
		want    string
	}{
		{
			name: "newest first",
			records: []goupi.PostRecord{
				{Name: "a", Timestamp: 100},
				{Name: "c", Timestamp: 300},
				{Name: "b", Timestamp: 200},
			},
			want: "c,b,a",
		},
		{
			name: "ties keep encounter order",
			records: []goupi.PostRecord{
				{Name: "x", Timestamp: 100},
				{Name: "y", Timestamp: 200},
				{Name: "z", Timestamp: 100},
				{Name: "w", Timestamp: 200},
			},
			want: "y,w,x,z",
		},
		{name: "empty", records: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := names(goupi.SortRecords(tt.records)); got != tt.want {
				t.Errorf("SortRecords() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSortRecords_DoesNotMutateInput(t *testing.T) {
	records := []goupi.PostRecord{{Name: "a", Timestamp: 1}, {Name: "b", Timestamp: 2}}
	goupi.SortRecords(records)
	if names(records) != "a,b" {
		t.Errorf("input reordered to %s", names(records))
	}
}

func TestSiteAssembler_BuildIndex(t *testing.T) {
	records := []goupi.PostRecord{
		{Name: "first", Title: "First", Description: "one", Timestamp: 100, TimestampDisplay: "1970-01-01 00:01:40"},
		{Name: "third", Title: "Third", Description: "three", Timestamp: 300, TimestampDisplay: "1970-01-01 00:05:00"},
		{Name: "second", Title: "Second & more", Description: "<two>", Timestamp: 200, TimestampDisplay: "1970-01-01 00:03:20"},
	}

	html, err := goupi.NewSiteAssembler("My Blog").BuildIndex(records)
	if err != nil {
		t.Fatalf("BuildIndex() error = %v", err)
	}

	if !strings.Contains(html, "<title>My Blog</title>") {
		t.Errorf("index missing title:\n%s", html)
	}
	if !strings.Contains(html, `<a href="third/index.html">Third</a> three <time>1970-01-01 00:05:00</time>`) {
		t.Errorf("index missing entry for third:\n%s", html)
	}
	if !strings.Contains(html, "Second &amp; more") || !strings.Contains(html, "&lt;two&gt;") {
		t.Errorf("index does not escape text:\n%s", html)
	}

	third := strings.Index(html, "third/index.html")
	second := strings.Index(html, "second/index.html")
	first := strings.Index(html, "first/index.html")
	if !(third < second && second < first) {
		t.Errorf("entries not ordered newest first: third=%d second=%d first=%d", third, second, first)
	}
}

func TestSiteAssembler_BuildIndexEmpty(t *testing.T) {
	html, err := goupi.NewSiteAssembler("Empty").BuildIndex(nil)
	if err != nil {
		t.Fatalf("BuildIndex() error = %v", err)
	}
	if strings.Contains(html, "<li>") {
		t.Errorf("empty index has entries:\n%s", html)
	}
}
