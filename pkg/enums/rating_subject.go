package enums

import "fmt"

// RatingSubject names what a rating is attached to.
type RatingSubject string

const (
	RatingSubjectProduct RatingSubject = "product"
	RatingSubjectVendor  RatingSubject = "vendor"
)

var validRatingSubjects = []RatingSubject{
	RatingSubjectProduct,
	RatingSubjectVendor,
}

func (r RatingSubject) String() string {
	return string(r)
}

func (r RatingSubject) IsValid() bool {
	for _, candidate := range validRatingSubjects {
		if candidate == r {
			return true
		}
	}
	return false
}

func ParseRatingSubject(value string) (RatingSubject, error) {
	for _, candidate := range validRatingSubjects {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rating subject %q", value)
}
