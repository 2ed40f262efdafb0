package edits

import (
	"strconv"

	"github.com/roach88/slider/internal/deck"
)

// FieldsBackground is the field mask of a background update.
const FieldsBackground = "pageBackgroundFill"

// NumberNotes rewrites every slide's speaker notes with its number, in
// traversal order. Notes that had text are cleared first; an empty notes
// shape has nothing to delete and the service rejects the attempt.
func NumberNotes(seq *deck.Sequence) []Request {
	out := make([]Request, 0, 2*seq.Len())
	for _, i := range seq.Order() {
		r := &seq.Records[i]
		if r.NoteHadContent {
			out = append(out, Request{DeleteText: &DeleteText{
				ObjectID:  r.NotesObjectID,
				TextRange: TextRange{Type: RangeAll},
			}})
		}
		out = append(out, Request{InsertText: &InsertText{
			ObjectID:       r.NotesObjectID,
			InsertionIndex: 0,
			Text:           strconv.FormatInt(r.Number, 10),
		}})
	}
	return out
}

// PrepareExport strips template decoration from a copy before export:
// every element placed by a layout the deck uses is deleted once, then
// every slide gets a fully transparent background.
func PrepareExport(p *deck.Presentation, seq *deck.Sequence) []Request {
	layouts := make(map[string]*deck.Layout, len(p.Layouts))
	for i := range p.Layouts {
		layouts[p.Layouts[i].ObjectID] = &p.Layouts[i]
	}

	var out []Request
	seenLayout := make(map[string]bool)
	seenElement := make(map[string]bool)
	order := seq.Order()

	for _, i := range order {
		id := seq.Records[i].LayoutID
		if seenLayout[id] {
			continue
		}
		seenLayout[id] = true

		layout, ok := layouts[id]
		if !ok {
			continue
		}
		for _, el := range layout.ElementIDs {
			if seenElement[el] {
				continue
			}
			seenElement[el] = true
			out = append(out, Request{DeleteObject: &DeleteObject{ObjectID: el}})
		}
	}

	for _, i := range order {
		out = append(out, TransparentBackground(seq.Records[i].ID))
	}
	return out
}

// TransparentBackground sets a page's background to black at zero alpha.
func TransparentBackground(pageID string) Request {
	return Request{UpdatePageProperties: &UpdatePageProperties{
		ObjectID: pageID,
		PageProperties: PageProperties{
			PageBackgroundFill: PageBackgroundFill{
				SolidFill: SolidFill{
					Color: OpaqueColor{RGBColor: RGBColor{}},
					Alpha: 0,
				},
			},
		},
		Fields: FieldsBackground,
	}}
}

// Count returns the number of requests per kind.
func Count(reqs []Request) map[string]int {
	out := make(map[string]int)
	for _, r := range reqs {
		out[r.Kind()]++
	}
	return out
}
