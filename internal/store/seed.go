package store

import (
	"time"

	"driver-portal/internal/domain"
)

// Seed data stands in for the dispatch backend: it is loaded only when no
// persisted value exists for the corresponding storage key.

// SeedDeliveries returns the dispatch-assigned starter route. Route order and
// package counts are pre-assigned by dispatch.
func SeedDeliveries(now time.Time) []domain.Delivery {
	completed := now.Add(-time.Hour)
	return []domain.Delivery{
		{
			ID:            "1",
			PackageNumber: "PKG-12345",
			Recipient:     "John Smith",
			Address:       "123 Main St, Apt 4B",
			Phone:         "(555) 123-4567",
			Status:        domain.DeliveryPending,
			Priority:      domain.PriorityHigh,
			TimeWindow:    "10:00 AM - 12:00 PM",
			Notes:         "Leave at door if no answer",
			Latitude:      f64(37.7749),
			Longitude:     f64(-122.4194),
			PackageCount:  2,
			RouteOrder:    1,
		},
		{
			ID:            "2",
			PackageNumber: "PKG-12346",
			Recipient:     "Sarah Johnson",
			Address:       "456 Oak Ave",
			Phone:         "(555) 234-5678",
			Status:        domain.DeliveryPending,
			Priority:      domain.PriorityNormal,
			TimeWindow:    "12:00 PM - 2:00 PM",
			Latitude:      f64(37.7849),
			Longitude:     f64(-122.4094),
			PackageCount:  1,
			RouteOrder:    2,
		},
		{
			ID:            "3",
			PackageNumber: "PKG-12347",
			Recipient:     "Mike Davis",
			Address:       "789 Pine Rd, Unit 12",
			Phone:         "(555) 345-6789",
			Status:        domain.DeliveryDelivered,
			Priority:      domain.PriorityNormal,
			TimeWindow:    "9:00 AM - 11:00 AM",
			Latitude:      f64(37.7649),
			Longitude:     f64(-122.4294),
			CompletedAt:   &completed,
			PackageCount:  3,
			RouteOrder:    3,
		},
		{
			ID:            "4",
			PackageNumber: "PKG-12348",
			Recipient:     "Emily Brown",
			Address:       "321 Elm St",
			Phone:         "(555) 456-7890",
			Status:        domain.DeliveryPending,
			Priority:      domain.PriorityLow,
			TimeWindow:    "2:00 PM - 4:00 PM",
			Latitude:      f64(37.7549),
			Longitude:     f64(-122.4394),
			PackageCount:  1,
			RouteOrder:    4,
		},
	}
}

// SeedBlocks returns the starter set of schedulable work blocks.
func SeedBlocks() []domain.DeliveryBlock {
	return []domain.DeliveryBlock{
		{
			ID:                "1",
			Date:              "Today",
			StartTime:         "8:00 AM",
			EndTime:           "12:00 PM",
			Duration:          "4 hours",
			Area:              "Downtown",
			EstimatedPackages: 25,
			Rate:              "$80",
			Status:            domain.BlockScheduled,
		},
		{
			ID:                "2",
			Date:              "Today",
			StartTime:         "1:00 PM",
			EndTime:           "5:00 PM",
			Duration:          "4 hours",
			Area:              "Suburbs",
			EstimatedPackages: 30,
			Rate:              "$90",
			Status:            domain.BlockAvailable,
		},
		{
			ID:                "3",
			Date:              "Tomorrow",
			StartTime:         "9:00 AM",
			EndTime:           "1:00 PM",
			Duration:          "4 hours",
			Area:              "North Side",
			EstimatedPackages: 20,
			Rate:              "$75",
			Status:            domain.BlockAvailable,
		},
		{
			ID:                "4",
			Date:              "Tomorrow",
			StartTime:         "2:00 PM",
			EndTime:           "6:00 PM",
			Duration:          "4 hours",
			Area:              "East Side",
			EstimatedPackages: 28,
			Rate:              "$85",
			Status:            domain.BlockAvailable,
		},
	}
}

// SeedStatistics returns the starter statistics snapshot.
func SeedStatistics() domain.Statistics {
	return domain.Statistics{
		TodayDeliveries:  12,
		TodayCompleted:   8,
		TodayPending:     4,
		TodayEarnings:    96,
		WeeklyDeliveries: 67,
		WeeklyEarnings:   320,
		TotalDeliveries:  1234,
		TotalEarnings:    12450,
		SuccessRate:      98.5,
		Rating:           4.9,
	}
}

func f64(v float64) *float64 { return &v }
