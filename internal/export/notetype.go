package export

import (
	"github.com/orhnk/Mahfouz/internal/anki"
)

// DefaultNoteTypeName is the bundled note type provisioned when absent.
const DefaultNoteTypeName = "Mahfouz Highlight"

// defaultCSS keeps the bundled cards readable without being opinionated.
const defaultCSS = `.card {
  font-family: georgia, serif;
  font-size: 19px;
  text-align: left;
  color: #1a1a1a;
  background-color: #fdfdf8;
  padding: 24px;
}
.source {
  margin-top: 1em;
  font-size: 14px;
  color: #777;
}`

const defaultFrontTemplate = `{{Front}}`

const defaultBackTemplate = `{{FrontSide}}
<hr id="answer">
{{Back}}
<div class="source">{{Source}}{{#Chapter}} &middot; {{Chapter}}{{/Chapter}}{{#Page}} &middot; p. {{Page}}{{/Page}}</div>`

// DefaultNoteType returns the bundled note type definition: a two-sided card
// with dedicated source metadata fields.
func DefaultNoteType() NoteTypeSpec {
	return NoteTypeSpec{
		Name:   DefaultNoteTypeName,
		Fields: []string{"Front", "Back", "Source", "Page", "Chapter", "Date"},
		CSS:    defaultCSS,
		Templates: []anki.CardTemplate{
			{
				Name:  "Highlight",
				Front: defaultFrontTemplate,
				Back:  defaultBackTemplate,
			},
		},
	}
}
