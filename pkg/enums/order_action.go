package enums

import (
	"fmt"
	"strings"
)

// OrderAction is the verb a trader submits to move an order between statuses.
type OrderAction string

const (
	OrderActionApprove  OrderAction = "approve"
	OrderActionDeny     OrderAction = "deny"
	OrderActionRefund   OrderAction = "refund"
	OrderActionDiscuss  OrderAction = "discuss"
	OrderActionExchange OrderAction = "exchange"
	OrderActionComplete OrderAction = "complete"
)

var orderActionTargets = map[OrderAction]OrderStatus{
	OrderActionApprove:  OrderStatusApproved,
	OrderActionDeny:     OrderStatusDenied,
	OrderActionRefund:   OrderStatusRefunded,
	OrderActionDiscuss:  OrderStatusDiscuss,
	OrderActionExchange: OrderStatusExchange,
	OrderActionComplete: OrderStatusComplete,
}

// String implements fmt.Stringer.
func (a OrderAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known OrderAction.
func (a OrderAction) IsValid() bool {
	_, ok := orderActionTargets[a]
	return ok
}

// Target returns the status an action moves an order into.
func (a OrderAction) Target() (OrderStatus, bool) {
	status, ok := orderActionTargets[a]
	return status, ok
}

// ParseOrderAction lowercases raw input and converts it into an OrderAction.
func ParseOrderAction(value string) (OrderAction, error) {
	action := OrderAction(strings.ToLower(strings.TrimSpace(value)))
	if !action.IsValid() {
		return "", fmt.Errorf("invalid order action %q", value)
	}
	return action, nil
}
