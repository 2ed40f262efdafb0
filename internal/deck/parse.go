package deck

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MaxPin is the largest number accepted as a pin. Larger values are treated
// like any other non-numeric note. The bound leaves room for the numbers
// computed after the last pin to stay within the range a float64 holds
// exactly.
const MaxPin int64 = 1 << 50

// labelPattern extracts the label token from a layout display name of the
// form "<anything> – <anything> – <token>" (en dashes).
var labelPattern = regexp.MustCompile("^.+ \u2013 .+ \u2013 (\\S+)$")

type presentationWire struct {
	PresentationID string            `json:"presentationId"`
	Title          string            `json:"title"`
	Slides         []json.RawMessage `json:"slides"`
	Layouts        []layoutWire      `json:"layouts"`
}

type layoutWire struct {
	ObjectID         string `json:"objectId"`
	LayoutProperties *struct {
		DisplayName string `json:"displayName"`
	} `json:"layoutProperties"`
	PageElements []struct {
		ObjectID string `json:"objectId"`
	} `json:"pageElements"`
}

// Parse decodes a presentation document.
//
// The document is validated against the embedded schema first, so a
// structurally broken input fails with a *ConfigurationError before any
// typed decoding happens.
func Parse(data []byte) (*Presentation, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}

	var wire presentationWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, &ConfigurationError{Message: "unparseable presentation", Err: err}
	}

	p := &Presentation{
		ID:      wire.PresentationID,
		Title:   wire.Title,
		Slides:  make([]Slide, 0, len(wire.Slides)),
		Layouts: make([]Layout, 0, len(wire.Layouts)),
	}

	for i, rawSlide := range wire.Slides {
		var s Slide
		if err := json.Unmarshal(rawSlide, &s); err != nil {
			return nil, &ConfigurationError{Message: fmt.Sprintf("slide %d is not an object", i), Err: err}
		}
		raw, err := decodeRaw(rawSlide)
		if err != nil {
			return nil, &ConfigurationError{SlideID: s.ObjectID, Message: "unparseable slide", Err: err}
		}
		s.Raw = raw
		p.Slides = append(p.Slides, s)
	}

	for _, lw := range wire.Layouts {
		l := Layout{ObjectID: lw.ObjectID}
		if lw.LayoutProperties != nil {
			l.DisplayName = lw.LayoutProperties.DisplayName
		}
		for _, el := range lw.PageElements {
			l.ElementIDs = append(l.ElementIDs, el.ObjectID)
		}
		p.Layouts = append(p.Layouts, l)
	}

	return p, nil
}

// decodeRaw decodes a descriptor keeping numbers as json.Number so the
// fingerprint sees the exact text the service sent.
func decodeRaw(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return m, nil
}

// ParseLabel returns the lower-cased label token of a layout display name,
// or "" when the name does not follow the labelled pattern.
func ParseLabel(displayName string) string {
	m := labelPattern.FindStringSubmatch(displayName)
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}

// parseNotes reads the operator pin from a speaker-notes shape.
// hadContent is true whenever the shape carries text, even non-numeric.
func parseNotes(shape *Shape) (pin *int64, hadContent bool) {
	if shape.Text == nil {
		return nil, false
	}

	var run *TextRun
	for i := range shape.Text.TextElements {
		if shape.Text.TextElements[i].TextRun != nil {
			run = shape.Text.TextElements[i].TextRun
			break
		}
	}
	if run == nil {
		return nil, true
	}

	content := strings.TrimSpace(run.Content)
	if content == "" || strings.IndexFunc(content, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return nil, true
	}
	n, err := strconv.ParseInt(content, 10, 64)
	if err != nil || n > MaxPin {
		return nil, true
	}
	return &n, true
}
