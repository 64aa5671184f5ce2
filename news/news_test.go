package news

import (
	"testing"

	"github.com/AndreiCalugar/NewsGenerator/types"
)

func TestDedupeByURL(t *testing.T) {
	articles := []types.Article{
		{Title: "Storm hits coast", URL: "https://a.example/1"},
		{Title: "Coast storm coverage", URL: "https://a.example/1"},
		{Title: "Other story", URL: "https://a.example/2"},
	}
	got := Dedupe(articles)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Title != "Storm hits coast" {
		t.Errorf("first occurrence should win, got %q", got[0].Title)
	}
}

func TestDedupeByTitle(t *testing.T) {
	articles := []types.Article{
		{Title: "Storm hits coast", URL: "https://a.example/1"},
		{Title: "storm hits coast", URL: "https://b.example/1"},
	}
	if got := Dedupe(articles); len(got) != 1 {
		t.Fatalf("len = %d, want title match to dedupe case-insensitively", len(got))
	}
}

func TestDedupeKeepsDistinct(t *testing.T) {
	articles := []types.Article{
		{Title: "First", URL: "https://a.example/1"},
		{Title: "Second", URL: "https://a.example/2"},
		{Title: "Third", URL: "https://a.example/3"},
	}
	if got := Dedupe(articles); len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
}
