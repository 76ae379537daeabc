package user

import "strconv"

// CountBucket classifies a total count into the display buckets the
// listing caption distinguishes.
type CountBucket int

const (
	CountNone CountBucket = iota
	CountOne
	CountMany
)

func ClassifyCount(n int) CountBucket {
	switch {
	case n <= 0:
		return CountNone
	case n == 1:
		return CountOne
	default:
		return CountMany
	}
}

// Caption renders the listing caption for a total count.
func Caption(n int) string {
	switch ClassifyCount(n) {
	case CountNone:
		return "No users"
	case CountOne:
		return "One user"
	default:
		return strconv.Itoa(n) + " users"
	}
}
