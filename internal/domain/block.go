package domain

// DeliveryBlock is a schedulable, time-boxed work shift the driver can claim
// or release.
type DeliveryBlock struct {
	ID                string      `json:"id"`
	Date              string      `json:"date"`
	StartTime         string      `json:"startTime"`
	EndTime           string      `json:"endTime"`
	Duration          string      `json:"duration"`
	Area              string      `json:"area"`
	EstimatedPackages int         `json:"estimatedPackages"`
	Rate              string      `json:"rate"`
	Status            BlockStatus `json:"status"`
}
