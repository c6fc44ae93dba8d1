package shop

const (
	TopicOrderCreated       = "order.created"
	TopicOrderUpdated       = "order.updated"
	TopicOrderDeleted       = "order.deleted"
	TopicReservationCreated = "reservation.created"
	TopicReservationExpired = "reservation.expired"
	TopicStockAdjusted      = "stock.adjusted"
)

// Partition key = product_id for stock events, entity id otherwise, so the
// event stream for one row stays ordered.
func PartitionKey(id string) []byte { return []byte(id) }
