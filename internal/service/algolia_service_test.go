package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	"depanku-backend/internal/models"
)

func TestSearchRecordTruncatesOnRuneBoundary(t *testing.T) {
	// 499 ASCII bytes followed by multi-byte runes puts a rune across the
	// byte limit.
	description := strings.Repeat("a", 499) + strings.Repeat("é", 10)

	record := toSearchRecord(&models.Opportunity{
		Title:       "Beasiswa Penelitian",
		Slug:        "beasiswa-penelitian",
		Description: description,
	})

	if len(record.Description) > searchRecordDescriptionLimit {
		t.Errorf("description is %d bytes, limit is %d", len(record.Description), searchRecordDescriptionLimit)
	}
	if !utf8.ValidString(record.Description) {
		t.Error("truncated description is not valid UTF-8")
	}
	if record.Description != strings.Repeat("a", 499) {
		t.Errorf("expected truncation before the split rune, got %d bytes", len(record.Description))
	}
}

func TestSearchRecordKeepsShortDescription(t *testing.T) {
	record := toSearchRecord(&models.Opportunity{Description: "singkat saja"})

	if record.Description != "singkat saja" {
		t.Errorf("description = %q", record.Description)
	}
}

func TestTruncateUTF8(t *testing.T) {
	cases := []struct {
		in    string
		limit int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello", 3, "hel"},
		{"héllo", 2, "h"},
		{"ééé", 3, "é"},
		{"", 5, ""},
	}

	for _, tc := range cases {
		if got := truncateUTF8(tc.in, tc.limit); got != tc.want {
			t.Errorf("truncateUTF8(%q, %d) = %q, want %q", tc.in, tc.limit, got, tc.want)
		}
	}
}
