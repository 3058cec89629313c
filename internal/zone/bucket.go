package zone

import (
	"strings"
)

// Bucket is one of six ordered demand tiers derived from a rating.
type Bucket string

// Buckets from highest to lowest value.
const (
	BucketGreen  Bucket = "green"
	BucketPurple Bucket = "purple"
	BucketBlue   Bucket = "blue"
	BucketSky    Bucket = "sky"
	BucketYellow Bucket = "yellow"
	BucketRed    Bucket = "red"
)

// bucketThresholds are inclusive lower bounds checked from the top.
var bucketThresholds = []struct {
	min    int
	bucket Bucket
}{
	{90, BucketGreen},
	{80, BucketPurple},
	{65, BucketBlue},
	{45, BucketSky},
	{25, BucketYellow},
}

var bucketColors = map[Bucket]string{
	BucketGreen:  "#00b050",
	BucketPurple: "#8e44ad",
	BucketBlue:   "#2e86de",
	BucketSky:    "#7fd3f7",
	BucketYellow: "#f1c40f",
	BucketRed:    "#e60000",
}

// Buckets returns every bucket ordered from highest to lowest.
func Buckets() []Bucket {
	return []Bucket{BucketGreen, BucketPurple, BucketBlue, BucketSky, BucketYellow, BucketRed}
}

// BucketFor maps a rating to its bucket. The rating is clamped into
// [MinRating, MaxRating] first, so every integer has exactly one bucket.
func BucketFor(rating int) Bucket {
	if rating < MinRating {
		rating = MinRating
	}
	if rating > MaxRating {
		rating = MaxRating
	}
	for _, t := range bucketThresholds {
		if rating >= t.min {
			return t.bucket
		}
	}
	return BucketRed
}

// ParseBucket normalizes a wire bucket name. ok is false for unknown names.
func ParseBucket(s string) (Bucket, bool) {
	b := Bucket(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := bucketColors[b]; !ok {
		return "", false
	}
	return b, true
}

// Valid reports whether b is one of the six known buckets.
func (b Bucket) Valid() bool {
	_, ok := bucketColors[b]
	return ok
}

// Color returns the display color for the bucket, or an empty string for an
// unknown bucket.
func (b Bucket) Color() string {
	return bucketColors[b]
}
