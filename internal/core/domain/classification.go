package domain

import (
	"fmt"
	"strconv"
)

const (
	MinRating = 1
	MaxRating = 5

	MinIdeology = -2
	MaxIdeology = 2

	// IdeologyUnscored marks a classification without an ideology score.
	IdeologyUnscored = -10
)

// Classification is the validated response of the classifier.
type Classification struct {
	Rating   int `json:"rating"`
	Ideology int `json:"ideology"`
}

// ValidRating reports whether r is a usable rating.
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// ValidIdeology reports whether v is in range or the unscored sentinel.
func ValidIdeology(v int) bool {
	return (v >= MinIdeology && v <= MaxIdeology) || v == IdeologyUnscored
}

// Validate checks both dimensions.
func (c Classification) Validate() error {
	if !ValidRating(c.Rating) {
		return fmt.Errorf("rating %d out of range [%d,%d]", c.Rating, MinRating, MaxRating)
	}
	if !ValidIdeology(c.Ideology) {
		return fmt.Errorf("ideology %d out of range", c.Ideology)
	}
	return nil
}

// IdeologyLabel returns the short badge label for an ideology score.
func IdeologyLabel(v int) string {
	switch v {
	case -2:
		return "LEFT"
	case -1:
		return "CL"
	case 0:
		return "CNTR"
	case 1:
		return "CR"
	case 2:
		return "RIGHT"
	case IdeologyUnscored:
		return "IDEO " + strconv.Itoa(v)
	default:
		return "IDEO ?"
	}
}

// RatingLabel returns the short badge label for a rating.
func RatingLabel(r int) string {
	if !ValidRating(r) {
		return "INF ?"
	}
	return "INF " + strconv.Itoa(r)
}

// Stats is the aggregate over all valid cached ratings.
type Stats struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}
