package enums

import "fmt"

// OutboxAggregateType identifies the entity an outbox event describes.
type OutboxAggregateType string

const (
	AggregateOrder    OutboxAggregateType = "order"
	AggregateProvider OutboxAggregateType = "provider"
	AggregateReview   OutboxAggregateType = "review"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateProvider,
	AggregateReview,
}

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType names a marketplace domain event.
type OutboxEventType string

const (
	EventOrderRequested     OutboxEventType = "order_requested"
	EventOrderPurchased     OutboxEventType = "order_purchased"
	EventOrderStatusChanged OutboxEventType = "order_status_changed"
	EventOrderCompleted     OutboxEventType = "order_completed"
	EventReviewSubmitted    OutboxEventType = "review_submitted"
	EventProviderCreated    OutboxEventType = "provider_created"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderRequested,
	EventOrderPurchased,
	EventOrderStatusChanged,
	EventOrderCompleted,
	EventReviewSubmitted,
	EventProviderCreated,
}

// IsValid reports whether the value matches a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
