package deck_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/slider/internal/deck"
)

func TestParseLabel(t *testing.T) {
	tests := []struct {
		name        string
		displayName string
		want        string
	}{
		{"labelled", "Deck \u2013 Title \u2013 Intro", "intro"},
		{"extra segments", "A \u2013 B \u2013 C \u2013 Outro", "outro"},
		{"plain", "Plain", ""},
		{"two segments", "Deck \u2013 Intro", ""},
		{"hyphens", "Deck - Title - Intro", ""},
		{"token with space", "Deck \u2013 Title \u2013 two words", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, deck.ParseLabel(tt.displayName))
		})
	}
}

func TestConfigurationErrorMessage(t *testing.T) {
	err := &deck.ConfigurationError{SlideID: "p7", Field: "slideProperties", Message: "missing required structure"}
	assert.Equal(t, `configuration error: slide "p7": missing required structure (slideProperties)`, err.Error())

	err = &deck.ConfigurationError{Message: "unparseable presentation"}
	assert.Equal(t, "configuration error: unparseable presentation", err.Error())
}
