package models

import "time"

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending             PaymentStatus = "pending"
	PaymentAwaiting            PaymentStatus = "awaiting_payment"
	PaymentPendingVerification PaymentStatus = "pending_verification"
	PaymentPaid                PaymentStatus = "paid"
)

// fulfilment is the forward path an order travels; cancelled sits outside it.
var fulfilment = []OrderStatus{OrderPending, OrderConfirmed, OrderProcessing, OrderShipped, OrderDelivered}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	status := OrderStatus(s)
	if status == OrderCancelled || status.rank() >= 0 {
		return status, true
	}
	return "", false
}

func (s OrderStatus) rank() int {
	for i, step := range fulfilment {
		if step == s {
			return i
		}
	}
	return -1
}

// Cancellable reports whether an order in this status may still be cancelled.
func (s OrderStatus) Cancellable() bool {
	return s == OrderPending || s == OrderConfirmed
}

func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// CanTransition reports whether an order may move from s to next. Orders only
// move forward (skipping steps is allowed) and may be cancelled while still
// pending or confirmed.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	if s.Terminal() || s == next {
		return false
	}
	if next == OrderCancelled {
		return s.Cancellable()
	}
	from, to := s.rank(), next.rank()
	return from >= 0 && to > from
}

// OrderItem is a snapshot of the product taken when the order was placed.
type OrderItem struct {
	ProductID int64  `bson:"productId" json:"productId"`
	Name      string `bson:"name" json:"name"`
	Price     int64  `bson:"price" json:"price"`
	Quantity  int    `bson:"quantity" json:"quantity"`
	Image     string `bson:"image" json:"image"`
}

type ShippingAddress struct {
	Name       string `bson:"name" json:"name"`
	Phone      string `bson:"phone" json:"phone"`
	Address    string `bson:"address" json:"address"`
	City       string `bson:"city" json:"city"`
	PostalCode string `bson:"postalCode,omitempty" json:"postalCode,omitempty"`
}

// Complete reports whether the address carries everything a courier needs.
func (a ShippingAddress) Complete() bool {
	return a.Name != "" && a.Address != "" && a.City != "" && a.Phone != ""
}

type BankDetails struct {
	BankName      string `bson:"bankName" json:"bankName"`
	AccountTitle  string `bson:"accountTitle" json:"accountTitle"`
	AccountNumber string `bson:"accountNumber" json:"accountNumber"`
	IBAN          string `bson:"iban" json:"iban"`
}

type PaymentDetails struct {
	Name          string       `bson:"name" json:"name"`
	ProcessingFee int64        `bson:"processingFee" json:"processingFee"`
	BankDetails   *BankDetails `bson:"bankDetails,omitempty" json:"bankDetails,omitempty"`
}

type TimelineEntry struct {
	Status    OrderStatus `bson:"status" json:"status"`
	Timestamp time.Time   `bson:"timestamp" json:"timestamp"`
	Note      string      `bson:"note" json:"note"`
}

type Order struct {
	Base            `bson:",inline"`
	OrderID         string          `bson:"orderId" json:"orderId" gorm:"size:32;index"`
	UserID          int64           `bson:"userId" json:"userId" gorm:"index"`
	Items           []OrderItem     `bson:"items" json:"items" gorm:"serializer:json;type:text"`
	ShippingAddress ShippingAddress `bson:"shippingAddress" json:"shippingAddress" gorm:"serializer:json;type:text"`
	PaymentMethod   string          `bson:"paymentMethod" json:"paymentMethod"`
	PaymentDetails  PaymentDetails  `bson:"paymentDetails" json:"paymentDetails" gorm:"serializer:json;type:text"`
	Subtotal        int64           `bson:"subtotal" json:"subtotal"`
	Shipping        int64           `bson:"shipping" json:"shipping"`
	ProcessingFee   int64           `bson:"processingFee" json:"processingFee"`
	Total           int64           `bson:"total" json:"total"`
	Status          OrderStatus     `bson:"status" json:"status" gorm:"size:20;index"`
	PaymentStatus   PaymentStatus   `bson:"paymentStatus" json:"paymentStatus" gorm:"size:32"`
	Notes           string          `bson:"notes" json:"notes"`
	TransactionID   string          `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
	PaymentProof    string          `bson:"paymentProof,omitempty" json:"paymentProof,omitempty"`
	Timeline        []TimelineEntry `bson:"timeline" json:"timeline" gorm:"serializer:json;type:text"`
}

// AppendTimeline records a status change and moves the order to it.
func (o *Order) AppendTimeline(status OrderStatus, note string, at time.Time) {
	o.Status = status
	o.Timeline = append(o.Timeline, TimelineEntry{Status: status, Timestamp: at, Note: note})
}
