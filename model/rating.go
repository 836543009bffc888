package model

import "math"

// RoundRating rounds to one decimal place, halves away from zero.
func RoundRating(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}

// AverageRating returns the rounded mean of the ratings and how many there are.
func AverageRating(ratings []Rating) (float64, int) {
	if len(ratings) == 0 {
		return 0, 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r.Rating
	}
	return RoundRating(float64(sum) / float64(len(ratings))), len(ratings)
}

// UpsertRating replaces the rater's previous rating or appends a new one.
func UpsertRating(ratings []Rating, r Rating) []Rating {
	out := make([]Rating, 0, len(ratings)+1)
	for _, existing := range ratings {
		if existing.User != r.User {
			out = append(out, existing)
		}
	}
	return append(out, r)
}
