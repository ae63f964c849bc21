// Package koreader normalizes KOReader sidecar annotation containers into
// canonical highlight records.
//
// Two legacy container shapes exist in the wild: newer sidecars carry an
// "annotations" collection, older ones a nested "highlight" page->index map
// with comments stored separately under "bookmarks". The shape is probed once
// per book and handled as an explicit variant, not re-probed per record.
//
// Sidecar data is semi-trusted, user-authored-adjacent input: malformed or
// missing nested structures make the book contribute zero highlights instead
// of raising an error.
package koreader

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/orhnk/Mahfouz/internal/entities"
)

// ContainerFormat identifies which legacy annotation shape a sidecar uses.
type ContainerFormat int

const (
	FormatUnknown ContainerFormat = iota
	FormatAnnotations               // newer shape: flat "annotations" collection
	FormatHighlightMap              // older shape: "highlight" page -> index map
)

// bookmarkPrefixPattern strips the "Page N <text> @ date" wrapper MoonReader-era
// KOReader builds put around bookmark text.
var bookmarkPrefixPattern = regexp.MustCompile(`(?s)Page \d+ (.+?) @ \d+-\d+-\d+ \d+:\d+:\d+`)

// Book couples a sidecar's decoded metadata with its display identity.
type Book struct {
	Title  string
	Author string
	Meta   map[string]any
}

// Normalizer converts decoded sidecar containers into canonical highlights.
type Normalizer struct {
	// ShowRefPages surfaces the reference page number instead of the raw
	// page number when the sidecar carries one. This is a presentation
	// choice made once per book, not per record.
	ShowRefPages bool
}

// DetectFormat probes which legacy shape is present. Presence of an
// "annotations" collection selects the newer shape; its absence falls back to
// the nested page map when one exists.
func DetectFormat(meta map[string]any) ContainerFormat {
	if meta == nil {
		return FormatUnknown
	}
	if _, ok := meta["annotations"]; ok {
		return FormatAnnotations
	}
	if _, ok := meta["highlight"]; ok {
		return FormatHighlightMap
	}
	return FormatUnknown
}

// Highlights extracts every canonical highlight from one book. Books with
// malformed containers contribute an empty slice.
func (n *Normalizer) Highlights(book Book) []entities.CanonicalHighlight {
	var out []entities.CanonicalHighlight

	switch DetectFormat(book.Meta) {
	case FormatAnnotations:
		for _, entry := range indexedEntries(book.Meta["annotations"]) {
			if h, ok := n.fromAnnotation(entry.value, entry.key); ok {
				h.BookTitle = book.Title
				h.Author = book.Author
				out = append(out, h)
			}
		}
	case FormatHighlightMap:
		bookmarks := indexBookmarks(book.Meta["bookmarks"])
		for _, page := range indexedEntries(book.Meta["highlight"]) {
			for _, entry := range indexedEntries(page.value) {
				if h, ok := n.fromHighlightMap(entry.value, page.key, entry.key, bookmarks); ok {
					h.BookTitle = book.Title
					h.Author = book.Author
					out = append(out, h)
				}
			}
		}
	}

	return out
}

// fromAnnotation converts one newer-shape entry. Entries without a start
// position marker are bookmarks, not highlights, and are skipped.
func (n *Normalizer) fromAnnotation(raw any, idx string) (entities.CanonicalHighlight, bool) {
	entry, ok := raw.(map[string]any)
	if !ok {
		return entities.CanonicalHighlight{}, false
	}
	if stringField(entry, "pos0") == "" {
		return entities.CanonicalHighlight{}, false
	}

	page := numberField(entry, "pageno")
	refPage := page
	// Reference pages appear as numbers or strings, like pageno. Only plain
	// digit values are trusted; roman numerals and ranges keep the raw page.
	if ref := numberValue(entry["pageref"]); ref != "" && isDigits(ref) {
		refPage = ref
	}

	shown := page
	if n.ShowRefPages {
		shown = refPage
	}

	return entities.CanonicalHighlight{
		Text:     unescapeNewlines(stringField(entry, "text")),
		Comment:  unescapeNewlines(stringField(entry, "note")),
		Chapter:  stringField(entry, "chapter"),
		Date:     stringField(entry, "datetime"),
		Page:     shown,
		SourceID: "annotations[" + idx + "]",
	}, true
}

// fromHighlightMap converts one older-shape entry. Comment recovery is a
// best-effort cross-reference against the bookmark collection; any lookup or
// parse failure yields an empty comment.
func (n *Normalizer) fromHighlightMap(raw any, page, pageIdx string, bookmarks map[string]map[string]any) (entities.CanonicalHighlight, bool) {
	entry, ok := raw.(map[string]any)
	if !ok {
		return entities.CanonicalHighlight{}, false
	}

	text := unescapeNewlines(stringField(entry, "text"))

	return entities.CanonicalHighlight{
		Text:     text,
		Comment:  recoverComment(text, bookmarks),
		Chapter:  stringField(entry, "chapter"),
		Date:     stringField(entry, "datetime"),
		Page:     page,
		SourceID: "highlight[" + page + "][" + pageIdx + "]",
	}, true
}

// indexBookmarks builds a lookup from a bookmark's "notes" text to the
// bookmark entry. Built once per book so comment recovery is a map hit instead
// of a rescan per highlight. The first entry wins on duplicate notes text.
func indexBookmarks(raw any) map[string]map[string]any {
	entries := indexedEntries(raw)
	index := make(map[string]map[string]any, len(entries))
	for _, b := range entries {
		bookmark, ok := b.value.(map[string]any)
		if !ok {
			continue
		}
		notes := stringField(bookmark, "notes")
		if notes == "" {
			continue
		}
		if _, seen := index[notes]; !seen {
			index[notes] = bookmark
		}
	}
	return index
}

// recoverComment looks up the bookmark whose "notes" field equals the
// highlight text. When the bookmark's own text differs, the recognized
// timestamp/page prefix is stripped and the remainder, if still different
// from the raw text, is the comment.
func recoverComment(text string, bookmarks map[string]map[string]any) string {
	bookmark, ok := bookmarks[text]
	if !ok {
		return ""
	}
	bkmText := stringField(bookmark, "text")
	if bkmText != "" && bkmText != text {
		stripped := stripBookmarkPrefix(bkmText)
		if stripped != text {
			return unescapeNewlines(stripped)
		}
	}
	return ""
}

// stripBookmarkPrefix removes the first "Page N ... @ date" wrapper only.
func stripBookmarkPrefix(s string) string {
	loc := bookmarkPrefixPattern.FindStringSubmatchIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + s[loc[2]:loc[3]] + s[loc[1]:]
}

// unescapeNewlines turns the sidecar's literal backslash-newline sequences
// into real newlines.
func unescapeNewlines(s string) string {
	return strings.ReplaceAll(s, "\\\n", "\n")
}

// indexedEntry is one element of a decoded collection together with its
// original key, kept for source identifiers and page numbers.
type indexedEntry struct {
	key   string
	value any
}

// indexedEntries flattens a decoded collection into a deterministic order.
// Sidecar collections decode either as arrays or as maps keyed by numeric
// strings, depending on the exporting build; both are accepted. Map keys are
// sorted numerically when possible so output order is stable.
func indexedEntries(raw any) []indexedEntry {
	switch v := raw.(type) {
	case []any:
		out := make([]indexedEntry, 0, len(v))
		for i, item := range v {
			out = append(out, indexedEntry{key: strconv.Itoa(i + 1), value: item})
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			a, aerr := strconv.Atoi(keys[i])
			b, berr := strconv.Atoi(keys[j])
			if aerr == nil && berr == nil {
				return a < b
			}
			return keys[i] < keys[j]
		})
		out := make([]indexedEntry, 0, len(keys))
		for _, k := range keys {
			out = append(out, indexedEntry{key: k, value: v[k]})
		}
		return out
	}
	return nil
}

func stringField(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// numberField renders a numeric field as a string; sidecars store page
// numbers as numbers but occasionally as strings.
func numberField(m map[string]any, key string) string {
	if s := numberValue(m[key]); s != "" {
		return s
	}
	return "0"
}

// numberValue renders a numeric-or-string value; anything else yields "".
func numberValue(v any) string {
	switch v := v.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case string:
		return v
	}
	return ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
