package domain

// Statistics is the derived performance aggregate. It is fully recomputed
// from the delivery collection after each mutation, except the two lifetime
// counters which advance with the completion ledger.
type Statistics struct {
	TodayDeliveries  int     `json:"todayDeliveries"`
	TodayCompleted   int     `json:"todayCompleted"`
	TodayPending     int     `json:"todayPending"`
	TodayEarnings    float64 `json:"todayEarnings"`
	WeeklyDeliveries int     `json:"weeklyDeliveries"`
	WeeklyEarnings   float64 `json:"weeklyEarnings"`
	TotalDeliveries  int     `json:"totalDeliveries"`
	TotalEarnings    float64 `json:"totalEarnings"`
	SuccessRate      float64 `json:"successRate"`
	Rating           float64 `json:"rating"`
}
