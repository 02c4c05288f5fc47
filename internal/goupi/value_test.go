package goupi_test

import (
	"math"
	"testing"
	"time"

	"goupi/internal/goupi"
)

func TestValue_String(t *testing.T) {
	offset := time.FixedZone("", -7*3600)
	tests := []struct {
		name  string
		value goupi.Value
		want  string
	}{
		{"string", goupi.String("Hello"), "Hello"},
		{"integer", goupi.Integer(-42), "-42"},
		{"float", goupi.Float(3.14), "3.14"},
		{"whole float", goupi.Float(1), "1"},
		{"positive infinity", goupi.Float(math.Inf(1)), "inf"},
		{"negative infinity", goupi.Float(math.Inf(-1)), "-inf"},
		{"nan", goupi.Float(math.NaN()), "NaN"},
		{"boolean", goupi.Boolean(false), "false"},
		{"array", goupi.Array{goupi.Integer(1)}, "[array]"},
		{"empty array", goupi.Array{}, "[array]"},
		{"table", goupi.Table{"a": goupi.String("b")}, "[table]"},
		{
			"offset datetime utc",
			goupi.Datetime{Time: time.Date(1979, 5, 27, 7, 32, 0, 0, time.UTC)},
			"1979-05-27T07:32:00Z",
		},
		{
			"offset datetime",
			goupi.Datetime{Time: time.Date(1979, 5, 27, 0, 32, 0, 0, offset)},
			"1979-05-27T00:32:00-07:00",
		},
		{
			"fractional seconds",
			goupi.Datetime{Time: time.Date(1979, 5, 27, 0, 32, 0, 999000000, time.UTC)},
			"1979-05-27T00:32:00.999Z",
		},
		{
			"local datetime",
			goupi.Datetime{Time: time.Date(1979, 5, 27, 7, 32, 0, 0, time.UTC), Kind: goupi.LocalDatetime},
			"1979-05-27T07:32:00",
		},
		{
			"local date",
			goupi.Datetime{Time: time.Date(1979, 5, 27, 0, 0, 0, 0, time.UTC), Kind: goupi.LocalDate},
			"1979-05-27",
		},
		{
			"local time",
			goupi.Datetime{Time: time.Date(0, 1, 1, 7, 32, 0, 0, time.UTC), Kind: goupi.LocalTime},
			"07:32:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.value.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfiguration_Lookup(t *testing.T) {
	cfg := goupi.Configuration{"Title": goupi.String("Hello")}

	if v, ok := cfg.Lookup("Title"); !ok || v.String() != "Hello" {
		t.Errorf("Lookup(Title) = %v, %v", v, ok)
	}
	if _, ok := cfg.Lookup("title"); ok {
		t.Error("Lookup() should be case-sensitive")
	}
	if got := cfg.LookupText("Missing"); got != "" {
		t.Errorf("LookupText(Missing) = %q, want empty", got)
	}
}

func TestResolveKey(t *testing.T) {
	post := goupi.Configuration{"Title": goupi.String("post title")}
	site := goupi.Configuration{"Title": goupi.String("site title"), "Site": goupi.String("Blog")}

	tests := []struct {
		key    string
		want   string
		wantOK bool
	}{
		{"Title", "post title", true},
		{"Site", "Blog", true},
		{"Author", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			v, ok := goupi.ResolveKey(tt.key, post, site)
			if ok != tt.wantOK {
				t.Fatalf("ResolveKey(%q) ok = %v, want %v", tt.key, ok, tt.wantOK)
			}
			if ok && v.String() != tt.want {
				t.Errorf("ResolveKey(%q) = %q, want %q", tt.key, v.String(), tt.want)
			}
		})
	}
}
