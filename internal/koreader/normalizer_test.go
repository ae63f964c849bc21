package koreader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		name string
		meta map[string]any
		want ContainerFormat
	}{
		{"nil metadata", nil, FormatUnknown},
		{"empty metadata", map[string]any{}, FormatUnknown},
		{"annotations collection", map[string]any{"annotations": []any{}}, FormatAnnotations},
		{"highlight map", map[string]any{"highlight": map[string]any{}}, FormatHighlightMap},
		{
			"annotations wins over highlight",
			map[string]any{"annotations": []any{}, "highlight": map[string]any{}},
			FormatAnnotations,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectFormat(tc.meta))
		})
	}
}

func annotationEntry(text string, extra map[string]any) map[string]any {
	entry := map[string]any{
		"pos0":     "/body/DocFragment[8]/p[3]/text().0",
		"pos1":     "/body/DocFragment[8]/p[3]/text().42",
		"text":     text,
		"pageno":   float64(12),
		"chapter":  "Chapter One",
		"datetime": "2024-03-01 10:15:00",
	}
	for k, v := range extra {
		entry[k] = v
	}
	return entry
}

func TestHighlights_Annotations(t *testing.T) {
	book := Book{
		Title:  "Palace Walk",
		Author: "Naguib Mahfouz",
		Meta: map[string]any{
			"annotations": []any{
				annotationEntry("First quote", map[string]any{"note": "my note"}),
				annotationEntry("Second quote", nil),
			},
		},
	}

	n := &Normalizer{}
	got := n.Highlights(book)
	require.Len(t, got, 2)

	assert.Equal(t, "First quote", got[0].Text)
	assert.Equal(t, "my note", got[0].Comment)
	assert.Equal(t, "Chapter One", got[0].Chapter)
	assert.Equal(t, "12", got[0].Page)
	assert.Equal(t, "2024-03-01 10:15:00", got[0].Date)
	assert.Equal(t, "Palace Walk", got[0].BookTitle)
	assert.Equal(t, "Naguib Mahfouz", got[0].Author)
	assert.Equal(t, "annotations[1]", got[0].SourceID)

	assert.Equal(t, "Second quote", got[1].Text)
	assert.Empty(t, got[1].Comment)
	assert.Equal(t, "annotations[2]", got[1].SourceID)
}

func TestHighlights_BookmarksWithoutPositionSkipped(t *testing.T) {
	bookmark := annotationEntry("just a bookmark", nil)
	delete(bookmark, "pos0")

	book := Book{Meta: map[string]any{
		"annotations": []any{
			bookmark,
			annotationEntry("kept", nil),
		},
	}}

	got := (&Normalizer{}).Highlights(book)
	require.Len(t, got, 1)
	assert.Equal(t, "kept", got[0].Text)
}

func TestHighlights_ReferencePages(t *testing.T) {
	entry := annotationEntry("quote", map[string]any{"pageref": "xiv"})
	numeric := annotationEntry("quote", map[string]any{"pageref": "9"})
	number := annotationEntry("quote", map[string]any{"pageref": float64(15)})

	plain := &Normalizer{}
	ref := &Normalizer{ShowRefPages: true}

	book := func(e map[string]any) Book {
		return Book{Meta: map[string]any{"annotations": []any{e}}}
	}

	// Reference pages only replace the page number when numeric. They are
	// stored as strings or JSON numbers; both count.
	assert.Equal(t, "12", plain.Highlights(book(numeric))[0].Page)
	assert.Equal(t, "9", ref.Highlights(book(numeric))[0].Page)
	assert.Equal(t, "15", ref.Highlights(book(number))[0].Page)
	assert.Equal(t, "12", ref.Highlights(book(entry))[0].Page)
}

func TestHighlights_EscapedNewlines(t *testing.T) {
	book := Book{Meta: map[string]any{
		"annotations": []any{
			annotationEntry("line one\\\nline two", map[string]any{"note": "a\\\nb"}),
		},
	}}

	got := (&Normalizer{}).Highlights(book)
	require.Len(t, got, 1)
	assert.Equal(t, "line one\nline two", got[0].Text)
	assert.Equal(t, "a\nb", got[0].Comment)
}

func TestHighlights_HighlightMap(t *testing.T) {
	book := Book{
		Title: "Midaq Alley",
		Meta: map[string]any{
			"highlight": map[string]any{
				"10": map[string]any{
					"1": map[string]any{"text": "alpha", "chapter": "Ch 2", "datetime": "2020-01-02 08:00:00"},
				},
				"2": map[string]any{
					"1": map[string]any{"text": "beta"},
				},
			},
		},
	}

	got := (&Normalizer{}).Highlights(book)
	require.Len(t, got, 2)

	// Page keys are ordered numerically, not lexically.
	assert.Equal(t, "beta", got[0].Text)
	assert.Equal(t, "2", got[0].Page)
	assert.Equal(t, "highlight[2][1]", got[0].SourceID)

	assert.Equal(t, "alpha", got[1].Text)
	assert.Equal(t, "10", got[1].Page)
	assert.Equal(t, "Ch 2", got[1].Chapter)
	assert.Equal(t, "highlight[10][1]", got[1].SourceID)
}

func TestHighlights_CommentRecoveredFromBookmarks(t *testing.T) {
	book := Book{Meta: map[string]any{
		"highlight": map[string]any{
			"5": map[string]any{
				"1": map[string]any{"text": "the quote"},
			},
		},
		"bookmarks": []any{
			map[string]any{
				"notes": "the quote",
				"text":  "Page 5 reader remark @ 2021-06-07 21:30:15",
			},
		},
	}}

	got := (&Normalizer{}).Highlights(book)
	require.Len(t, got, 1)
	assert.Equal(t, "reader remark", got[0].Comment)
}

func TestHighlights_CommentFirstMatchingBookmarkWins(t *testing.T) {
	book := Book{Meta: map[string]any{
		"highlight": map[string]any{
			"5": map[string]any{
				"1": map[string]any{"text": "the quote"},
			},
		},
		"bookmarks": []any{
			map[string]any{"notes": "other"},
			map[string]any{"notes": "the quote", "text": "the quote"},
			map[string]any{
				"notes": "the quote",
				"text":  "Page 5 late remark @ 2021-06-07 21:30:15",
			},
		},
	}}

	// The second bookmark matches first; its text equals the quote, so no
	// comment is recovered and later matches are not consulted.
	got := (&Normalizer{}).Highlights(book)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Comment)
}

func TestHighlights_MalformedContainers(t *testing.T) {
	cases := []struct {
		name string
		meta map[string]any
	}{
		{"annotations is a string", map[string]any{"annotations": "oops"}},
		{"annotation entry not a map", map[string]any{"annotations": []any{"oops", 3.14}}},
		{"highlight pages not maps", map[string]any{"highlight": map[string]any{"3": "oops"}}},
		{"highlight entries not maps", map[string]any{"highlight": map[string]any{"3": map[string]any{"1": true}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Empty(t, (&Normalizer{}).Highlights(Book{Meta: tc.meta}))
		})
	}
}

func TestStripBookmarkPrefix(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			"wrapped remark",
			"Page 12 my remark @ 2021-06-07 21:30:15",
			"my remark",
		},
		{
			"no wrapper",
			"plain remark",
			"plain remark",
		},
		{
			"only first wrapper stripped",
			"Page 1 a @ 2021-01-01 00:00:00 Page 2 b @ 2021-01-01 00:00:00",
			"a Page 2 b @ 2021-01-01 00:00:00",
		},
		{
			"multiline remark",
			"Page 3 first\nsecond @ 2021-01-01 00:00:00",
			"first\nsecond",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, stripBookmarkPrefix(tc.in))
		})
	}
}

func TestIndexedEntries_NumericKeyOrder(t *testing.T) {
	entries := indexedEntries(map[string]any{"10": "j", "2": "b", "1": "a"})
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.key)
	}
	assert.Equal(t, []string{"1", "2", "10"}, keys)
}
