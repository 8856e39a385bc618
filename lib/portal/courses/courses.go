// Package courses resolves free-form course filters against the
// configured alias table and dedicated per-course pages.
package courses

import (
	"sort"
	"strings"

	"github.com/dp-pcs/noah-hw-mcp/lib/textutil"

	"github.com/antzucaro/matchr"
)

// Match is a resolved dedicated course page.
type Match struct {
	Key string
	Url string
}

type aliasEntry struct {
	alias string
	key   string
}

type Catalog struct {
	// sorted longest-first so the most specific alias wins when a
	// filter contains several
	aliases []aliasEntry
	// course keys in the same order
	linkKeys []string
	links    map[string]string
}

// NewCatalog builds a catalog from the configured alias and link
// tables. Aliases are matched as substrings of normalized filters, so
// "math" resolves "7th Grade Math" and "Math (Period 3)" alike.
func NewCatalog(aliases, links map[string]string) Catalog {
	entries := make([]aliasEntry, 0, len(aliases))
	for alias, key := range aliases {
		entries = append(entries, aliasEntry{
			alias: textutil.NormalizeName(alias),
			key:   key,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if len(entries[i].alias) != len(entries[j].alias) {
			return len(entries[i].alias) > len(entries[j].alias)
		}
		return entries[i].alias < entries[j].alias
	})

	linkKeys := make([]string, 0, len(links))
	for key := range links {
		linkKeys = append(linkKeys, key)
	}
	sort.Slice(linkKeys, func(i, j int) bool {
		if len(linkKeys[i]) != len(linkKeys[j]) {
			return len(linkKeys[i]) > len(linkKeys[j])
		}
		return linkKeys[i] < linkKeys[j]
	})

	return Catalog{aliases: entries, linkKeys: linkKeys, links: links}
}

// Resolve maps a course filter to a dedicated page. Misses are normal,
// the caller falls back to substring-filtering the shared grades page.
func (c Catalog) Resolve(filter string) (Match, bool) {
	norm := textutil.NormalizeName(filter)
	if norm == "" {
		return Match{}, false
	}

	for _, entry := range c.aliases {
		if !strings.Contains(norm, entry.alias) {
			continue
		}
		url, ok := c.links[entry.key]
		if !ok {
			// alias points at a course with no dedicated page
			continue
		}
		return Match{Key: entry.key, Url: url}, true
	}

	// course keys themselves double as aliases: "pre algebra" hits the
	// pre_algebra page without any alias configured
	for _, key := range c.linkKeys {
		keyName := textutil.NormalizeName(strings.ReplaceAll(key, "_", " "))
		if keyName != "" && strings.Contains(norm, keyName) {
			return Match{Key: key, Url: c.links[key]}, true
		}
	}
	return Match{}, false
}

// Suggest returns the configured alias most similar to the filter, for
// log hints when nothing resolved.
func (c Catalog) Suggest(filter string) (string, bool) {
	norm := textutil.NormalizeName(filter)
	if norm == "" {
		return "", false
	}

	var most string
	var mostSimilarity float64
	for _, entry := range c.aliases {
		similarity := matchr.JaroWinkler(norm, entry.alias, false)
		if similarity > mostSimilarity {
			mostSimilarity = similarity
			most = entry.alias
		}
	}
	if mostSimilarity < 0.8 {
		return "", false
	}
	return most, true
}
