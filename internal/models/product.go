package models

// LowStockThreshold marks products the admin dashboard reports as running out.
const LowStockThreshold = 10

type Product struct {
	Base          `bson:",inline"`
	Name          string  `bson:"name" json:"name"`
	Price         int64   `bson:"price" json:"price"`
	OriginalPrice *int64  `bson:"originalPrice,omitempty" json:"originalPrice"`
	Category      string  `bson:"category" json:"category" gorm:"size:191;index"`
	Image         string  `bson:"image" json:"image"`
	Description   string  `bson:"description" json:"description"`
	Stock         int     `bson:"stock" json:"stock"`
	Badge         string  `bson:"badge,omitempty" json:"badge,omitempty"`
	Rating        float64 `bson:"rating" json:"rating"`
	Reviews       int     `bson:"reviews" json:"reviews"`
}

// ProductSnapshot is the live product view attached to cart lines.
type ProductSnapshot struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Image string `json:"image"`
	Stock int    `json:"stock"`
}

func (p Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		ID:    p.ID,
		Name:  p.Name,
		Price: p.Price,
		Image: p.Image,
		Stock: p.Stock,
	}
}
