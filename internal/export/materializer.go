package export

import (
	"github.com/orhnk/Mahfouz/internal/entities"
)

// mergeSeparator joins multiple logical values routed to one physical field.
const mergeSeparator = "<br><br>"

// MaterializedRecord is one submission-ready field payload together with its
// diagnostic preview.
type MaterializedRecord struct {
	Fields  map[string]string
	Preview RecordPreview
}

// Materialize applies a resolved mapping to one canonical highlight and
// produces the physical field payload. The second return value is false when
// the record must be dropped as skipped-empty.
//
// Placement order is fixed: highlight content first, then comment content
// (including the copy-of-highlight guard when the record has no comment),
// then metadata keys in canonical declaration order. A later value routed to
// an occupied field is appended after the existing content, never overwriting
// it.
func Materialize(h entities.CanonicalHighlight, resolved entities.FieldMapping, fields []string, policy entities.FrontContentPolicy) (MaterializedRecord, bool) {
	if h.IsEmpty() {
		return MaterializedRecord{}, false
	}

	payload := make(map[string]string, len(fields))
	for _, f := range fields {
		payload[f] = ""
	}

	highlightField := resolved[entities.FieldHighlight]
	commentField := resolved[entities.FieldComment]

	if highlightField != "" && h.Text != "" {
		appendValue(payload, highlightField, h.Text)
	}

	switch {
	case commentField != "" && h.Comment != "":
		appendValue(payload, commentField, h.Comment)
	case commentField != "" && h.Text != "":
		// Single-sided content: echo the highlight text on the comment side
		// so it stays visible on both faces of a two-sided card.
		appendValue(payload, commentField, h.Text)
	}

	// Front-content swap happens before metadata lands so that promoting the
	// comment face never drags page/chapter/date along with it.
	if policy == entities.FrontContentComment && h.Comment != "" {
		if _, ok := payload["Front"]; ok {
			payload["Front"] = h.Comment
		}
		if _, ok := payload["Back"]; ok {
			payload["Back"] = h.Text
		}
	}

	for _, key := range entities.MetadataFieldKeys {
		field := resolved[key]
		if field == "" {
			continue
		}
		if value := h.Value(key); value != "" {
			appendValue(payload, field, value)
		}
	}

	if allEmpty(payload) {
		// A materialized record must never submit entirely blank when source
		// content existed.
		forced := h.Text
		if forced == "" {
			forced = h.Comment
		}
		if highlightField != "" && forced != "" {
			payload[highlightField] = forced
		}
	}

	if allEmpty(payload) {
		return MaterializedRecord{}, false
	}

	return MaterializedRecord{
		Fields: payload,
		Preview: RecordPreview{
			Front:   payload[highlightField],
			Back:    payload[commentField],
			Book:    h.BookTitle,
			Chapter: h.Chapter,
			Page:    h.Page,
		},
	}, true
}

func appendValue(payload map[string]string, field, value string) {
	if existing, ok := payload[field]; ok && existing != "" {
		payload[field] = existing + mergeSeparator + value
		return
	}
	payload[field] = value
}

func allEmpty(payload map[string]string) bool {
	for _, v := range payload {
		if v != "" {
			return false
		}
	}
	return true
}
