package enums

import "fmt"

// OutboxAggregateType identifies the entity an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder   OutboxAggregateType = "order"
	AggregateCart    OutboxAggregateType = "cart"
	AggregateProduct OutboxAggregateType = "product"
)

func (a OutboxAggregateType) IsValid() bool {
	switch a {
	case AggregateOrder, AggregateCart, AggregateProduct:
		return true
	}
	return false
}

// OutboxEventType names the domain events written to outbox_events.
type OutboxEventType string

const (
	EventOrderCreated              OutboxEventType = "order_created"
	EventOrderPaymentStatusChanged OutboxEventType = "order_payment_status_changed"
	EventCartExpired               OutboxEventType = "cart_expired"
	EventProductPriceChanged       OutboxEventType = "product_price_changed"
)

// eventAggregates pins every event type to the one aggregate it may carry.
var eventAggregates = map[OutboxEventType]OutboxAggregateType{
	EventOrderCreated:              AggregateOrder,
	EventOrderPaymentStatusChanged: AggregateOrder,
	EventCartExpired:               AggregateCart,
	EventProductPriceChanged:       AggregateProduct,
}

func (e OutboxEventType) IsValid() bool {
	_, ok := eventAggregates[e]
	return ok
}

// Aggregate returns the aggregate type e belongs to, or "" for unknown events.
func (e OutboxEventType) Aggregate() OutboxAggregateType {
	return eventAggregates[e]
}

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	e := OutboxEventType(value)
	if !e.IsValid() {
		return "", fmt.Errorf("invalid event type %q", value)
	}
	return e, nil
}
