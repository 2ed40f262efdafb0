package deck

// NoNext marks the last record of a Sequence.
const NoNext = -1

// Presentation is the parsed form of a presentation document.
type Presentation struct {
	ID      string
	Title   string
	Slides  []Slide
	Layouts []Layout
}

// Layout is a slide layout as far as slider cares: its id, display name
// (source of artifact labels) and the ids of the elements it places on
// every slide that uses it.
type Layout struct {
	ObjectID    string
	DisplayName string
	ElementIDs  []string
}

// Slide is a typed view over one slide descriptor. Every sub-structure is
// optional on the wire; NewSequence decides which ones are required.
// Raw holds the complete descriptor with numbers decoded as json.Number.
type Slide struct {
	ObjectID        string           `json:"objectId"`
	SlideProperties *SlideProperties `json:"slideProperties,omitempty"`

	Raw map[string]any `json:"-"`
}

// SlideProperties carries the layout reference and the notes page.
type SlideProperties struct {
	LayoutObjectID string     `json:"layoutObjectId,omitempty"`
	NotesPage      *NotesPage `json:"notesPage,omitempty"`
}

// NotesPage is the speaker-notes page attached to a slide.
type NotesPage struct {
	ObjectID        string           `json:"objectId,omitempty"`
	NotesProperties *NotesProperties `json:"notesProperties,omitempty"`
	PageElements    []PageElement    `json:"pageElements,omitempty"`
}

// NotesProperties names the shape holding the speaker notes text.
type NotesProperties struct {
	SpeakerNotesObjectID string `json:"speakerNotesObjectId,omitempty"`
}

// PageElement is an element on a page. Only shapes are modelled.
type PageElement struct {
	ObjectID string `json:"objectId"`
	Shape    *Shape `json:"shape,omitempty"`
}

// Shape is a page element that may hold text. A nil Text means the shape
// is empty, which the remote API distinguishes from empty text.
type Shape struct {
	Text *TextContent `json:"text,omitempty"`
}

// TextContent is the text body of a shape.
type TextContent struct {
	TextElements []TextElement `json:"textElements,omitempty"`
}

// TextElement is one segment of text. Paragraph markers carry no TextRun.
type TextElement struct {
	TextRun *TextRun `json:"textRun,omitempty"`
}

// TextRun is a run of characters with uniform style.
type TextRun struct {
	Content string `json:"content"`
}

// Record is one slide in traversal order.
type Record struct {
	// ID is the page object id; unique within a sequence.
	ID string

	// Raw is the full descriptor the fingerprint was computed from.
	Raw map[string]any

	// Pin is the operator-supplied number parsed from the speaker notes,
	// nil when the notes are empty or not purely numeric.
	Pin *int64

	// NoteHadContent is true when the notes shape carried any text at all,
	// numeric or not.
	NoteHadContent bool

	// NotesObjectID is the speaker-notes shape id (target of note edits).
	NotesObjectID string

	// LayoutID is the layout object id referenced by the slide.
	LayoutID string

	// Label is the lower-cased token from the layout display name, or "".
	Label string

	// Hash is the content fingerprint of Raw.
	Hash string

	// Number is the assigned sequence number; valid once Numbered is true.
	Number   int64
	Numbered bool

	// Next is the arena index of the following record, or NoNext.
	Next int
}

// Pinned reports whether the record carries an operator pin.
func (r *Record) Pinned() bool {
	return r.Pin != nil
}
