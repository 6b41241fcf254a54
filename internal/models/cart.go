package models

import "time"

type CartItem struct {
	ProductID int64     `bson:"productId" json:"productId"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	AddedAt   time.Time `bson:"addedAt" json:"addedAt"`
}

// Cart is created on the first add; a user without one simply has no cart.
type Cart struct {
	Base   `bson:",inline"`
	UserID int64      `bson:"userId" json:"userId" gorm:"uniqueIndex"`
	Items  []CartItem `bson:"items" json:"items" gorm:"serializer:json;type:text"`
}

// ItemIndex returns the position of productID in the cart, or -1.
func (c Cart) ItemIndex(productID int64) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}
