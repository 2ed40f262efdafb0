package testutil

import (
	"encoding/json"
	"fmt"
)

// Layout ids provided by DefaultLayouts.
const (
	LayoutPlain = "layout-plain"
	LayoutIntro = "layout-intro"
)

// SlideSpec describes one slide for PresentationJSON.
type SlideSpec struct {
	// ID is the page object id.
	ID string

	// Note is the speaker-notes text; nil leaves the notes shape empty.
	Note *string

	// Layout is the layout object id; defaults to LayoutPlain.
	Layout string

	// Body is text placed in a body shape on the slide.
	Body string

	// ImageURL, if set, adds an image element whose contentUrl is this value.
	ImageURL string
}

// LayoutSpec describes one layout for PresentationJSON.
type LayoutSpec struct {
	ID          string
	DisplayName string
	Elements    []string
}

// Note returns a pointer to s for SlideSpec.Note.
func Note(s string) *string {
	return &s
}

// DefaultLayouts returns a plain layout without label and a labelled
// "intro" layout carrying one template element.
func DefaultLayouts() []LayoutSpec {
	return []LayoutSpec{
		{ID: LayoutPlain, DisplayName: "Plain"},
		{ID: LayoutIntro, DisplayName: "Deck \u2013 Title \u2013 Intro", Elements: []string{"intro-logo", "intro-band"}},
	}
}

// Deck returns a presentation document with id "deck-1", title "Deck",
// the default layouts and the given slides.
func Deck(slides ...SlideSpec) []byte {
	return PresentationJSON("deck-1", "Deck", DefaultLayouts(), slides)
}

// PresentationJSON renders a presentation document shaped like the Slides
// API response, including the structures slider requires.
func PresentationJSON(id, title string, layouts []LayoutSpec, slides []SlideSpec) []byte {
	doc := map[string]any{
		"presentationId": id,
		"title":          title,
		"pageSize": map[string]any{
			"width":  map[string]any{"magnitude": 9144000, "unit": "EMU"},
			"height": map[string]any{"magnitude": 5143500, "unit": "EMU"},
		},
		"slides":  slideDocs(slides),
		"layouts": layoutDocs(layouts),
	}
	data, err := json.Marshal(doc)
	if err != nil {
		panic(fmt.Sprintf("testutil: marshal presentation: %v", err))
	}
	return data
}

// SlideJSON renders a single slide descriptor.
func SlideJSON(spec SlideSpec) map[string]any {
	return slideDoc(spec)
}

func slideDocs(specs []SlideSpec) []any {
	out := make([]any, 0, len(specs))
	for _, s := range specs {
		out = append(out, slideDoc(s))
	}
	return out
}

func slideDoc(s SlideSpec) map[string]any {
	layout := s.Layout
	if layout == "" {
		layout = LayoutPlain
	}
	notesID := s.ID + "-notes"

	notesShape := map[string]any{"shapeType": "TEXT_BOX"}
	if s.Note != nil {
		notesShape["text"] = map[string]any{
			"textElements": []any{
				map[string]any{"endIndex": len(*s.Note), "paragraphMarker": map[string]any{"style": map[string]any{}}},
				map[string]any{"endIndex": len(*s.Note), "textRun": map[string]any{"content": *s.Note}},
			},
		}
	}

	elements := []any{
		map[string]any{
			"objectId": s.ID + "-body",
			"size": map[string]any{
				"width":  map[string]any{"magnitude": 3000000, "unit": "EMU"},
				"height": map[string]any{"magnitude": 1500000, "unit": "EMU"},
			},
			"transform": map[string]any{"scaleX": 1.5, "scaleY": 1, "unit": "EMU"},
			"shape": map[string]any{
				"shapeType": "TEXT_BOX",
				"text": map[string]any{
					"textElements": []any{
						map[string]any{"textRun": map[string]any{"content": s.Body}},
					},
				},
			},
		},
	}
	if s.ImageURL != "" {
		elements = append(elements, map[string]any{
			"objectId": s.ID + "-image",
			"image": map[string]any{
				"contentUrl": s.ImageURL,
				"sourceUrl":  "https://example.com/" + s.ID + ".png",
			},
		})
	}

	return map[string]any{
		"objectId":     s.ID,
		"pageElements": elements,
		"slideProperties": map[string]any{
			"layoutObjectId": layout,
			"masterObjectId": "master-1",
			"notesPage": map[string]any{
				"objectId": s.ID + "-notes-page",
				"pageType": "NOTES",
				"notesProperties": map[string]any{
					"speakerNotesObjectId": notesID,
				},
				"pageElements": []any{
					map[string]any{"objectId": notesID, "shape": notesShape},
				},
			},
		},
	}
}

func layoutDocs(specs []LayoutSpec) []any {
	out := make([]any, 0, len(specs))
	for _, l := range specs {
		elements := make([]any, 0, len(l.Elements))
		for _, e := range l.Elements {
			elements = append(elements, map[string]any{"objectId": e})
		}
		doc := map[string]any{
			"objectId":         l.ID,
			"pageType":         "LAYOUT",
			"layoutProperties": map[string]any{"displayName": l.DisplayName, "name": l.ID},
		}
		if len(elements) > 0 {
			doc["pageElements"] = elements
		}
		out = append(out, doc)
	}
	return out
}
