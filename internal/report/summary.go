package report

import (
	"cmp"
	"slices"
	"time"

	"foodwaste/internal/model"
)

// Row is one aggregated report line.
type Row struct {
	Key      string `json:"key"`
	Quantity int    `json:"quantity"`
}

// BucketTotal is the summed quantity of one expiry bucket.
type BucketTotal struct {
	Bucket   Bucket `json:"bucket"`
	Quantity int    `json:"quantity"`
}

// Summary holds the headline metrics over all listings.
type Summary struct {
	GeneratedAt          time.Time     `json:"generated_at"`
	TotalQuantity        int           `json:"total_quantity"`
	FoodTypes            int           `json:"food_types"`
	ExpiredQuantity      int           `json:"expired_quantity"`
	ExpiringSoonQuantity int           `json:"expiring_soon_quantity"`
	UndatedListings      int           `json:"undated_listings"`
	Buckets              []BucketTotal `json:"buckets"`
}

// Summarize computes the summary at now. Listings without an expiry date
// count towards the total but towards no bucket.
func Summarize(listings []*model.FoodListing, now time.Time) Summary {
	s := Summary{GeneratedAt: now}
	types := make(map[string]struct{})
	byBucket := make(map[Bucket]int, len(Buckets))

	for _, l := range listings {
		s.TotalQuantity += l.Quantity
		types[l.FoodType] = struct{}{}

		b, ok := BucketFor(DaysToExpire(l.ExpiryDate, now))
		if !ok {
			s.UndatedListings++
			continue
		}
		byBucket[b] += l.Quantity
	}

	s.FoodTypes = len(types)
	s.ExpiredQuantity = byBucket[BucketExpired]
	s.ExpiringSoonQuantity = byBucket[Bucket0To3]
	s.Buckets = make([]BucketTotal, len(Buckets))
	for i, b := range Buckets {
		s.Buckets[i] = BucketTotal{Bucket: b, Quantity: byBucket[b]}
	}
	return s
}

// TopLocations sums quantity per location and returns the n largest,
// ties broken by location name. n <= 0 returns every location.
func TopLocations(listings []*model.FoodListing, n int) []Row {
	rows := sumBy(listings, func(l *model.FoodListing) string { return l.Location })
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

// CategoryDistribution sums quantity per food type, largest first.
func CategoryDistribution(listings []*model.FoodListing) []Row {
	return sumBy(listings, func(l *model.FoodListing) string { return l.FoodType })
}

func sumBy(listings []*model.FoodListing, key func(*model.FoodListing) string) []Row {
	totals := make(map[string]int)
	for _, l := range listings {
		totals[key(l)] += l.Quantity
	}

	rows := make([]Row, 0, len(totals))
	for k, q := range totals {
		rows = append(rows, Row{Key: k, Quantity: q})
	}
	slices.SortFunc(rows, func(a, b Row) int {
		if c := cmp.Compare(b.Quantity, a.Quantity); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return rows
}
