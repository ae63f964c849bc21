package entities

// LogicalFieldKey identifies one source-side concept a user can map onto a
// physical note field. The set is closed; it does not grow per note type.
type LogicalFieldKey string

const (
	FieldHighlight LogicalFieldKey = "highlight" // alias for the highlight text
	FieldComment   LogicalFieldKey = "comment"
	FieldPage      LogicalFieldKey = "page"
	FieldChapter   LogicalFieldKey = "chapter"
	FieldDate      LogicalFieldKey = "date"
	FieldBookTitle LogicalFieldKey = "book_title"
	FieldAuthor    LogicalFieldKey = "author"
)

// LogicalFieldKeys lists every key in canonical declaration order. Mapping
// iteration follows this order so that many-to-one field merges are
// deterministic.
var LogicalFieldKeys = []LogicalFieldKey{
	FieldHighlight,
	FieldComment,
	FieldPage,
	FieldChapter,
	FieldDate,
	FieldBookTitle,
	FieldAuthor,
}

// MetadataFieldKeys lists the keys that carry context rather than content.
var MetadataFieldKeys = []LogicalFieldKey{
	FieldPage,
	FieldChapter,
	FieldDate,
	FieldBookTitle,
	FieldAuthor,
}

// CanonicalHighlight is the normalized, source-independent representation of
// one user-made annotation. Page is kept as a string on purpose: source page
// numbers may be physical or logical/reference numbers.
type CanonicalHighlight struct {
	Text      string `json:"text"`
	Comment   string `json:"comment"`
	Chapter   string `json:"chapter"`
	Page      string `json:"page"`
	Date      string `json:"date"`
	BookTitle string `json:"book_title"`
	Author    string `json:"author"`

	// SourceID points back to the originating annotation. Used only in
	// diagnostics, never as deduplication identity.
	SourceID string `json:"source_id"`
}

// Value returns the highlight's content for a logical field key.
func (h CanonicalHighlight) Value(key LogicalFieldKey) string {
	switch key {
	case FieldHighlight:
		return h.Text
	case FieldComment:
		return h.Comment
	case FieldPage:
		return h.Page
	case FieldChapter:
		return h.Chapter
	case FieldDate:
		return h.Date
	case FieldBookTitle:
		return h.BookTitle
	case FieldAuthor:
		return h.Author
	}
	return ""
}

// IsEmpty reports whether the record carries no exportable content. Empty
// records are dropped before submission and counted separately.
func (h CanonicalHighlight) IsEmpty() bool {
	return h.Text == "" && h.Comment == ""
}

// FieldMapping maps logical field keys to physical note field names. An empty
// value means the key is unmapped. Two variants exist in the export lifecycle:
// the declared mapping authored by the user (possibly stale against the live
// note type) and the resolved mapping recomputed against the live field list
// on every export.
type FieldMapping map[LogicalFieldKey]string

// Clone returns a copy so resolution never mutates the declared mapping.
func (m FieldMapping) Clone() FieldMapping {
	out := make(FieldMapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// FrontContentPolicy selects which side of the record is the primary face of
// a two-sided card.
type FrontContentPolicy string

const (
	FrontContentHighlight FrontContentPolicy = "highlight"
	FrontContentComment   FrontContentPolicy = "comment"
)

// DefaultFieldMapping targets the stock two-sided note type convention.
var DefaultFieldMapping = FieldMapping{
	FieldHighlight: "Front",
	FieldComment:   "Back",
	FieldPage:      "Back",
	FieldChapter:   "Back",
	FieldDate:      "Back",
	FieldBookTitle: "Back",
	FieldAuthor:    "Back",
}
