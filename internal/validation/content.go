package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	maxPostLength        = 5000
	maxCommentLength     = 2000
	maxReviewTitleLength = 255
	maxMovieIDLength     = 255
)

// ValidatePostContent requires non-blank post text of bounded length.
func ValidatePostContent(content string) error {
	return requiredText("content", content, maxPostLength)
}

// ValidateComment requires non-blank comment text of bounded length.
func ValidateComment(content string) error {
	return requiredText("content", content, maxCommentLength)
}

// ValidateReview checks the fields of a new review.
func ValidateReview(title, description, movieID string, rating, minRating, maxRating int) error {
	if err := requiredText("title", title, maxReviewTitleLength); err != nil {
		return err
	}
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("description is required")
	}
	if err := requiredText("movie_id", movieID, maxMovieIDLength); err != nil {
		return err
	}
	if rating < minRating || rating > maxRating {
		return fmt.Errorf("rating must be between %d and %d", minRating, maxRating)
	}
	return nil
}

func requiredText(field, value string, max int) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", field)
	}
	if utf8.RuneCountInString(value) > max {
		return fmt.Errorf("%s must not exceed %d characters", field, max)
	}
	return nil
}
