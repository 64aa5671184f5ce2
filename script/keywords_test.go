package script

import (
	"strings"
	"testing"
)

func TestMineKeywordsSkipsStopWords(t *testing.T) {
	text := "The storm hit the coast and the storm caused flooding across the coast region"
	got := MineKeywords(text, 3)

	if len(got) == 0 {
		t.Fatal("expected keywords from content words")
	}
	if got[0] != "storm" && got[0] != "coast" {
		t.Errorf("top keyword = %q, want a repeated content word", got[0])
	}
	for _, k := range got {
		if _, bad := stopWords[k]; bad {
			t.Errorf("stop word %q leaked into keywords", k)
		}
		if len(k) < 4 {
			t.Errorf("short token %q leaked into keywords", k)
		}
	}
}

func TestMineKeywordsFrequencyOrder(t *testing.T) {
	text := "flooding flooding flooding storm storm coast"
	got := MineKeywords(text, 3)
	want := []string{"flooding", "storm", "coast"}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("got[%d] = %q, want %q", i, got[i], w)
		}
	}
}

func TestMineKeywordsRespectsMax(t *testing.T) {
	text := "storm flooding coast evacuation rescue emergency shelter damage"
	if got := MineKeywords(text, 3); len(got) != 3 {
		t.Errorf("len = %d, want 3", len(got))
	}
}

func TestEnhanceAddsTopicTerms(t *testing.T) {
	got := Enhance([]string{"election"}, "the politics of the new bill")
	if len(got) < 2 {
		t.Fatal("expected visual enhancers for the politics topic")
	}
	found := false
	for _, k := range got {
		if k == "government building" {
			found = true
		}
	}
	if !found {
		t.Errorf("enhancers missing, got %v", got)
	}
}

func TestEnhanceCapsAtEight(t *testing.T) {
	base := []string{"a", "b", "c", "d", "e", "f", "g"}
	got := Enhance(base, "politics economy technology weather health sports")
	if len(got) > 8 {
		t.Errorf("len = %d, want at most 8", len(got))
	}
	// Original keywords always survive the cap.
	for i, k := range base {
		if got[i] != k {
			t.Errorf("got[%d] = %q, want original keyword %q preserved", i, got[i], k)
		}
	}
}

func TestEnhanceNoTopicsMatched(t *testing.T) {
	got := Enhance([]string{"storm"}, "a quiet day by the sea")
	if len(got) != 1 || got[0] != "storm" {
		t.Errorf("got %v, want keywords unchanged", got)
	}
}

func TestGenericKeywordsAreUsable(t *testing.T) {
	for _, k := range genericKeywords {
		if strings.TrimSpace(k) == "" {
			t.Error("generic keyword list contains a blank entry")
		}
	}
}
