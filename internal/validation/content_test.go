package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePostContent(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidatePostContent("Rewatched Alien tonight"))
	assert.Error(t, ValidatePostContent(" \n\t"))
	assert.Error(t, ValidatePostContent(strings.Repeat("a", 5001)))
	assert.Error(t, ValidateComment(""))
	assert.Error(t, ValidateComment(strings.Repeat("a", 2001)))
}

func TestValidateReview(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		title   string
		desc    string
		movieID string
		rating  int
		wantErr bool
	}{
		{"Valid", "Masterpiece", "Still holds up", "603", 5, false},
		{"Lowest rating", "Meh", "Skip it", "603", 1, false},
		{"Missing title", "", "x", "603", 3, true},
		{"Missing description", "t", " ", "603", 3, true},
		{"Missing movie", "t", "d", "", 3, true},
		{"Rating zero", "t", "d", "603", 0, true},
		{"Rating six", "t", "d", "603", 6, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateReview(tt.title, tt.desc, tt.movieID, tt.rating, 1, 5)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
