// Package report computes expiry buckets, summary metrics and the
// location/category reports over food listings.
package report

import (
	"math"
	"time"
)

// Bucket is a labelled range of days until expiry.
type Bucket string

const (
	BucketExpired Bucket = "Expired"
	Bucket0To3    Bucket = "0-3 days"
	Bucket4To7    Bucket = "4-7 days"
	Bucket8To30   Bucket = "8-30 days"
	BucketOver30  Bucket = "30+ days"
)

// Buckets lists every bucket in display order.
var Buckets = []Bucket{BucketExpired, Bucket0To3, Bucket4To7, Bucket8To30, BucketOver30}

// DaysToExpire returns the whole days from now until expiry, rounded
// towards negative infinity. A nil expiry yields nil.
func DaysToExpire(expiry *time.Time, now time.Time) *int {
	if expiry == nil {
		return nil
	}
	days := int(math.Floor(expiry.Sub(now).Hours() / 24))
	return &days
}

// BucketFor places days into its bucket. ok is false for nil days.
func BucketFor(days *int) (b Bucket, ok bool) {
	if days == nil {
		return "", false
	}
	switch d := *days; {
	case d < 0:
		return BucketExpired, true
	case d <= 3:
		return Bucket0To3, true
	case d <= 7:
		return Bucket4To7, true
	case d <= 30:
		return Bucket8To30, true
	default:
		return BucketOver30, true
	}
}
