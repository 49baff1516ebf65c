package enums

// OrderStatus tracks the lifecycle of a service order.
type OrderStatus string

const (
	OrderStatusDiscuss  OrderStatus = "discuss"
	OrderStatusApproved OrderStatus = "approved"
	OrderStatusDenied   OrderStatus = "denied"
	OrderStatusRefunded OrderStatus = "refunded"
	OrderStatusExchange OrderStatus = "exchange"
	OrderStatusComplete OrderStatus = "complete"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusDiscuss,
	OrderStatusApproved,
	OrderStatusDenied,
	OrderStatusRefunded,
	OrderStatusExchange,
	OrderStatusComplete,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}
