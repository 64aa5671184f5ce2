package script

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
)

// keywordResponse is the structured output for keyword extraction
type keywordResponse struct {
	Keywords []string `json:"keywords" jsonschema_description:"Concrete visual search terms for stock footage, one or two words each"`
}

var keywordResponseSchema = GenerateSchema[keywordResponse]()

// genericKeywords cover the case where nothing usable can be pulled
// from the text at all.
var genericKeywords = []string{"news", "information", "report", "media"}

// visualEnhancers widen a sparse keyword set with footage-friendly
// terms by topic.
var visualEnhancers = map[string][]string{
	"politics":   {"government building", "flag", "podium"},
	"economy":    {"stock market", "city skyline", "office"},
	"technology": {"computer", "data center", "circuit board"},
	"weather":    {"storm clouds", "rain", "satellite"},
	"health":     {"hospital", "laboratory", "doctor"},
	"sports":     {"stadium", "crowd", "training"},
}

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {},
	"with": {}, "by": {}, "from": {}, "as": {}, "is": {}, "are": {},
	"was": {}, "were": {}, "be": {}, "been": {}, "has": {}, "have": {},
	"had": {}, "will": {}, "would": {}, "this": {}, "that": {},
	"these": {}, "those": {}, "it": {}, "its": {}, "their": {},
	"they": {}, "he": {}, "she": {}, "his": {}, "her": {}, "which": {},
	"more": {}, "most": {}, "after": {}, "before": {}, "said": {},
	"says": {}, "new": {}, "also": {}, "about": {}, "into": {},
	"over": {}, "than": {}, "when": {}, "while": {}, "who": {},
	"what": {}, "where": {}, "how": {}, "not": {}, "no": {},
}

// ExtractKeywords pulls visual search terms from a script. The LLM does
// the extraction when available; otherwise the text itself is mined for
// frequent content words so footage search never starts empty-handed.
func (g *Generator) ExtractKeywords(ctx context.Context, scriptText string) []string {
	keywords, err := g.extractLLM(ctx, scriptText)
	if err != nil {
		log.Printf("[script] ⚠️ keyword extraction via model failed, mining text: %v", err)
		keywords = MineKeywords(scriptText, g.cfg.Script.MaxKeywords)
	}
	if len(keywords) == 0 {
		keywords = genericKeywords
	}
	return Enhance(keywords, scriptText)
}

func (g *Generator) extractLLM(ctx context.Context, scriptText string) ([]string, error) {
	prompt := fmt.Sprintf(`Extract up to %d search keywords for finding stock footage that illustrates this news script.
Keywords must be concrete and visual (things a camera can film), one or two words each.
Never return names of specific people.

Script:
%s

Respond in JSON:
{
  "keywords": ["keyword1", "keyword2"]
}`, g.cfg.Script.MaxKeywords, scriptText)

	resp, err := getStructuredResponse[keywordResponse](ctx, g.client, prompt, "footage_keywords", keywordResponseSchema, g.cfg.Script.Temperature)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(resp.Keywords))
	for _, k := range resp.Keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			out = append(out, k)
		}
		if len(out) == g.cfg.Script.MaxKeywords {
			break
		}
	}
	return out, nil
}

// MineKeywords extracts the most frequent content words from the text
func MineKeywords(text string, max int) []string {
	counts := map[string]int{}
	order := map[string]int{}
	for i, raw := range strings.Fields(strings.ToLower(text)) {
		word := strings.Trim(raw, ".,!?;:\"'()[]")
		if len(word) < 4 {
			continue
		}
		if _, skip := stopWords[word]; skip {
			continue
		}
		if _, seen := counts[word]; !seen {
			order[word] = i
		}
		counts[word]++
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	// Frequency first, earliest mention breaks ties.
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return order[words[i]] < order[words[j]]
	})
	if len(words) > max {
		words = words[:max]
	}
	return words
}

// Enhance appends topic-matched visual terms, capped at 8 keywords total
func Enhance(keywords []string, scriptText string) []string {
	const maxTotal = 8
	lower := strings.ToLower(scriptText)
	out := append([]string{}, keywords...)
	seen := map[string]struct{}{}
	for _, k := range out {
		seen[k] = struct{}{}
	}
	topics := make([]string, 0, len(visualEnhancers))
	for topic := range visualEnhancers {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	for _, topic := range topics {
		if !strings.Contains(lower, topic) {
			continue
		}
		for _, e := range visualEnhancers[topic] {
			if len(out) >= maxTotal {
				return out
			}
			if _, dup := seen[e]; dup {
				continue
			}
			seen[e] = struct{}{}
			out = append(out, e)
		}
	}
	if len(out) > maxTotal {
		out = out[:maxTotal]
	}
	return out
}
