package icons

import (
	"strings"
	"unicode/utf8"

	"github.com/zauberjournal/journal-api/pkg/iconapi"
)

type matchTier string

const (
	tierExact         matchTier = "exact"
	tierKeywordInName matchTier = "keyword_in_name"
	tierNameInKeyword matchTier = "name_in_keyword"
	tierMiss          matchTier = "miss"
)

type entry struct {
	keyword string
	emoji   string
	length  int
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// table is an immutable snapshot of the mapping list in server order.
type table struct {
	entries []entry
	exact   map[string]string
}

func newTable(raw []iconapi.Icon) *table {
	t := &table{
		entries: make([]entry, 0, len(raw)),
		exact:   make(map[string]string, len(raw)),
	}
	for _, icon := range raw {
		keyword := normalize(icon.Keyword)
		if keyword == "" {
			continue
		}
		t.entries = append(t.entries, entry{
			keyword: keyword,
			emoji:   icon.Emoji,
			length:  utf8.RuneCountInString(keyword),
		})
		if _, seen := t.exact[keyword]; !seen {
			t.exact[keyword] = icon.Emoji
		}
	}
	return t
}

func (t *table) size() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// lookup applies the three tiers in order: exact keyword, longest keyword
// contained in the name, longest keyword containing the name. Equal lengths
// keep the earlier entry.
func (t *table) lookup(name string) (string, matchTier) {
	if t.size() == 0 {
		return "", tierMiss
	}
	key := normalize(name)
	if key == "" {
		return "", tierMiss
	}

	if emoji, ok := t.exact[key]; ok {
		return emoji, tierExact
	}
	if emoji, ok := t.longest(func(e entry) bool { return strings.Contains(key, e.keyword) }); ok {
		return emoji, tierKeywordInName
	}
	if emoji, ok := t.longest(func(e entry) bool { return strings.Contains(e.keyword, key) }); ok {
		return emoji, tierNameInKeyword
	}
	return "", tierMiss
}

func (t *table) longest(match func(entry) bool) (string, bool) {
	best := -1
	for i, e := range t.entries {
		if !match(e) {
			continue
		}
		if best < 0 || e.length > t.entries[best].length {
			best = i
		}
	}
	if best < 0 {
		return "", false
	}
	return t.entries[best].emoji, true
}
