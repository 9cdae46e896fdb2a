package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"dataorbit/api/utils"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"  Top 10 Credit Cards!  ", "top-10-credit-cards"},
		{"Already-a-slug", "already-a-slug"},
		{"Ünicode & Symbols?", "nicode-symbols"},
		{"---", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, utils.Slugify(tt.title), "Slugify(%q)", tt.title)
	}
}

func TestIsValidInterval(t *testing.T) {
	assert.True(t, utils.IsValidInterval("Day"))
	assert.True(t, utils.IsValidInterval("Hour"))
	assert.False(t, utils.IsValidInterval("day"))
	assert.False(t, utils.IsValidInterval("Fortnight"))
	assert.False(t, utils.IsValidInterval(""))
}
