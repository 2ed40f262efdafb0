package deck

import (
	"fmt"

	"github.com/roach88/slider/internal/fingerprint"
)

// Sequence is the ordered record arena for one presentation.
// It is built once by NewSequence; only numbering fields change afterwards.
type Sequence struct {
	Records []Record

	// Head is the index of the first record, or NoNext for an empty deck.
	Head int

	index map[string]int
}

// Load parses a presentation document and builds its sequence.
func Load(data []byte) (*Presentation, *Sequence, error) {
	p, err := Parse(data)
	if err != nil {
		return nil, nil, err
	}
	seq, err := NewSequence(p)
	if err != nil {
		return nil, nil, err
	}
	return p, seq, nil
}

// NewSequence builds one record per slide, preserving order, and links each
// record to the next. It fails fast with a *ConfigurationError on the first
// slide missing its notes container, speaker-notes shape or layout.
func NewSequence(p *Presentation) (*Sequence, error) {
	layouts := make(map[string]*Layout, len(p.Layouts))
	for i := range p.Layouts {
		layouts[p.Layouts[i].ObjectID] = &p.Layouts[i]
	}

	seq := &Sequence{
		Records: make([]Record, 0, len(p.Slides)),
		Head:    NoNext,
		index:   make(map[string]int, len(p.Slides)),
	}

	for i := range p.Slides {
		rec, err := newRecord(&p.Slides[i], layouts)
		if err != nil {
			return nil, err
		}
		if _, dup := seq.index[rec.ID]; dup {
			return nil, &ConfigurationError{SlideID: rec.ID, Field: "objectId", Message: "duplicate slide id"}
		}
		seq.index[rec.ID] = len(seq.Records)
		seq.Records = append(seq.Records, rec)
	}

	for i := range seq.Records {
		if i+1 < len(seq.Records) {
			seq.Records[i].Next = i + 1
		} else {
			seq.Records[i].Next = NoNext
		}
	}
	if len(seq.Records) > 0 {
		seq.Head = 0
	}

	return seq, nil
}

func newRecord(s *Slide, layouts map[string]*Layout) (Record, error) {
	if s.ObjectID == "" {
		return Record{}, missing("", "objectId")
	}
	props := s.SlideProperties
	if props == nil {
		return Record{}, missing(s.ObjectID, "slideProperties")
	}
	if props.NotesPage == nil {
		return Record{}, missing(s.ObjectID, "slideProperties.notesPage")
	}
	if props.NotesPage.NotesProperties == nil || props.NotesPage.NotesProperties.SpeakerNotesObjectID == "" {
		return Record{}, missing(s.ObjectID, "slideProperties.notesPage.notesProperties.speakerNotesObjectId")
	}
	notesID := props.NotesPage.NotesProperties.SpeakerNotesObjectID

	var notes *PageElement
	for i := range props.NotesPage.PageElements {
		if props.NotesPage.PageElements[i].ObjectID == notesID {
			notes = &props.NotesPage.PageElements[i]
			break
		}
	}
	if notes == nil {
		return Record{}, &ConfigurationError{
			SlideID: s.ObjectID,
			Field:   "slideProperties.notesPage.pageElements",
			Message: fmt.Sprintf("speaker notes shape %q not found", notesID),
		}
	}
	if notes.Shape == nil {
		return Record{}, missing(s.ObjectID, "slideProperties.notesPage.pageElements["+notesID+"].shape")
	}

	if props.LayoutObjectID == "" {
		return Record{}, missing(s.ObjectID, "slideProperties.layoutObjectId")
	}
	layout, ok := layouts[props.LayoutObjectID]
	if !ok {
		return Record{}, &ConfigurationError{
			SlideID: s.ObjectID,
			Field:   "slideProperties.layoutObjectId",
			Message: fmt.Sprintf("layout %q not found", props.LayoutObjectID),
		}
	}

	if s.Raw == nil {
		return Record{}, missing(s.ObjectID, "raw descriptor")
	}
	hash, err := fingerprint.Slide(s.Raw)
	if err != nil {
		return Record{}, &ConfigurationError{SlideID: s.ObjectID, Message: "cannot fingerprint slide", Err: err}
	}

	pin, hadContent := parseNotes(notes.Shape)

	return Record{
		ID:             s.ObjectID,
		Raw:            s.Raw,
		Pin:            pin,
		NoteHadContent: hadContent,
		NotesObjectID:  notesID,
		LayoutID:       layout.ObjectID,
		Label:          ParseLabel(layout.DisplayName),
		Hash:           hash,
		Next:           NoNext,
	}, nil
}

// Len returns the number of records.
func (s *Sequence) Len() int {
	return len(s.Records)
}

// Order returns record indices in traversal order by following Next from
// Head. The walk is bounded by the arena size.
func (s *Sequence) Order() []int {
	order := make([]int, 0, len(s.Records))
	for i := s.Head; i != NoNext && len(order) < len(s.Records); i = s.Records[i].Next {
		order = append(order, i)
	}
	return order
}

// Lookup returns the arena index of the record with the given id.
func (s *Sequence) Lookup(id string) (int, bool) {
	i, ok := s.index[id]
	return i, ok
}

// LiveNumbers returns the set of numbers assigned to records.
func (s *Sequence) LiveNumbers() map[int64]bool {
	live := make(map[int64]bool, len(s.Records))
	for i := range s.Records {
		if s.Records[i].Numbered {
			live[s.Records[i].Number] = true
		}
	}
	return live
}

// AdoptNumbers copies assigned numbers from src by record id.
//
// Used for a disposable copy of a presentation: the copy keeps the page ids
// of the original, so numbers resolved on the original carry over. Every
// record in s must exist, numbered, in src.
func (s *Sequence) AdoptNumbers(src *Sequence) error {
	for i := range s.Records {
		r := &s.Records[i]
		j, ok := src.Lookup(r.ID)
		if !ok {
			return &ConfigurationError{SlideID: r.ID, Message: "slide not present in source sequence"}
		}
		if !src.Records[j].Numbered {
			return &ConfigurationError{SlideID: r.ID, Message: "source slide has no number"}
		}
		r.Number = src.Records[j].Number
		r.Numbered = true
	}
	return nil
}
