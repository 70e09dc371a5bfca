package domain

type (
	// DeliveryStatus represents the lifecycle state of a delivery.
	DeliveryStatus string
	// DeliveryPriority is the dispatch-set priority of a delivery.
	DeliveryPriority string
	// BlockStatus represents the scheduling state of a delivery block.
	BlockStatus string
)

// List of possible delivery statuses
const (
	DeliveryPending    DeliveryStatus = "pending"
	DeliveryInProgress DeliveryStatus = "in-progress"
	DeliveryDelivered  DeliveryStatus = "delivered"
	DeliveryException  DeliveryStatus = "exception"
)

// List of possible delivery priorities
const (
	PriorityHigh   DeliveryPriority = "high"
	PriorityNormal DeliveryPriority = "normal"
	PriorityLow    DeliveryPriority = "low"
)

// List of possible block statuses. Completed is terminal and reserved for a
// dispatch-side transition; the driver only moves blocks between available
// and scheduled.
const (
	BlockAvailable BlockStatus = "available"
	BlockScheduled BlockStatus = "scheduled"
	BlockCompleted BlockStatus = "completed"
)

var allowedDeliveryStatuses = [...]DeliveryStatus{
	DeliveryPending, DeliveryInProgress, DeliveryDelivered, DeliveryException,
}

var allowedPriorities = [...]DeliveryPriority{
	PriorityHigh, PriorityNormal, PriorityLow,
}

var allowedBlockStatuses = [...]BlockStatus{
	BlockAvailable, BlockScheduled, BlockCompleted,
}

// Valid checks if the DeliveryStatus is valid
func (s DeliveryStatus) Valid() bool {
	for _, v := range allowedDeliveryStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Valid checks if the DeliveryPriority is valid
func (p DeliveryPriority) Valid() bool {
	for _, v := range allowedPriorities {
		if p == v {
			return true
		}
	}
	return false
}

// Valid checks if the BlockStatus is valid
func (s BlockStatus) Valid() bool {
	for _, v := range allowedBlockStatuses {
		if s == v {
			return true
		}
	}
	return false
}
