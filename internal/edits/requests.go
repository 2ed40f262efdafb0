// Package edits builds the batched edit requests slider sends to the
// presentation service: rewriting speaker notes with assigned numbers, and
// preparing a disposable copy for image export.
//
// Requests are plain output. Nothing here talks to the service or inspects
// its replies.
package edits

// Request is one entry of a batchUpdate call. Exactly one field is set.
type Request struct {
	DeleteText           *DeleteText           `json:"deleteText,omitempty"`
	InsertText           *InsertText           `json:"insertText,omitempty"`
	UpdatePageProperties *UpdatePageProperties `json:"updatePageProperties,omitempty"`
	DeleteObject         *DeleteObject         `json:"deleteObject,omitempty"`
}

// Kind names the operation a request carries.
func (r Request) Kind() string {
	switch {
	case r.DeleteText != nil:
		return "deleteText"
	case r.InsertText != nil:
		return "insertText"
	case r.UpdatePageProperties != nil:
		return "updatePageProperties"
	case r.DeleteObject != nil:
		return "deleteObject"
	default:
		return ""
	}
}

// Batch is the body of a batchUpdate call.
type Batch struct {
	Requests []Request `json:"requests"`
}

// DeleteText removes text from a shape.
type DeleteText struct {
	ObjectID  string    `json:"objectId"`
	TextRange TextRange `json:"textRange"`
}

// TextRange selects text within a shape.
type TextRange struct {
	Type string `json:"type"`
}

// RangeAll selects all text in a shape.
const RangeAll = "ALL"

// InsertText inserts text into a shape.
type InsertText struct {
	ObjectID       string `json:"objectId"`
	InsertionIndex int    `json:"insertionIndex"`
	Text           string `json:"text"`
}

// UpdatePageProperties changes properties of a page. Fields is the field
// mask naming what to update.
type UpdatePageProperties struct {
	ObjectID       string         `json:"objectId"`
	PageProperties PageProperties `json:"pageProperties"`
	Fields         string         `json:"fields"`
}

// PageProperties holds the page properties slider changes.
type PageProperties struct {
	PageBackgroundFill PageBackgroundFill `json:"pageBackgroundFill"`
}

// PageBackgroundFill is a page background.
type PageBackgroundFill struct {
	SolidFill SolidFill `json:"solidFill"`
}

// SolidFill is a single color with opacity. Zero values are meaningful
// and always serialised.
type SolidFill struct {
	Color OpaqueColor `json:"color"`
	Alpha float64     `json:"alpha"`
}

// OpaqueColor wraps an RGB color.
type OpaqueColor struct {
	RGBColor RGBColor `json:"rgbColor"`
}

// RGBColor components are in [0, 1].
type RGBColor struct {
	Red   float64 `json:"red"`
	Green float64 `json:"green"`
	Blue  float64 `json:"blue"`
}

// DeleteObject removes a page element.
type DeleteObject struct {
	ObjectID string `json:"objectId"`
}
