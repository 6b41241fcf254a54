package store

import "github.com/asadk95/estore/internal/models"

func price(v int64) *int64 { return &v }

// DefaultProducts is the demo catalog loaded into an empty product store.
func DefaultProducts() []models.Product {
	return []models.Product{
		{Name: "Wireless Bluetooth Headphones", Price: 4500, OriginalPrice: price(6000), Category: "Electronics", Image: "https://images.unsplash.com/photo-1505740420928-5e560c06d30e?w=400", Rating: 4.8, Reviews: 124, Badge: "Hot", Description: "Premium wireless headphones with noise cancellation", Stock: 15},
		{Name: "Smart Watch Fitness Tracker", Price: 7500, OriginalPrice: price(10000), Category: "Electronics", Image: "https://images.unsplash.com/photo-1523275335684-37898b6baf30?w=400", Rating: 4.5, Reviews: 89, Badge: "New", Description: "Track your fitness with style", Stock: 10},
		{Name: "Premium Cotton T-Shirt", Price: 1200, Category: "Clothing", Image: "https://images.unsplash.com/photo-1521572163474-6864f9cf17ab?w=400", Rating: 4.3, Reviews: 56, Description: "Comfortable cotton t-shirt", Stock: 50},
		{Name: "Leather Crossbody Bag", Price: 3500, OriginalPrice: price(4500), Category: "Accessories", Image: "https://images.unsplash.com/photo-1548036328-c9fa89d128fa?w=400", Rating: 4.7, Reviews: 78, Description: "Stylish leather bag for everyday use", Stock: 20},
		{Name: "Running Sports Shoes", Price: 5500, OriginalPrice: price(7000), Category: "Sports", Image: "https://images.unsplash.com/photo-1542291026-7eec264c27ff?w=400", Rating: 4.6, Reviews: 145, Badge: "Hot", Description: "Lightweight running shoes", Stock: 30},
		{Name: "Minimalist Desk Lamp", Price: 2500, Category: "Home & Living", Image: "https://images.unsplash.com/photo-1507473885765-e6ed057f782c?w=400", Rating: 4.4, Reviews: 34, Badge: "New", Description: "Modern LED desk lamp", Stock: 25},
		{Name: "Organic Face Cream", Price: 1800, OriginalPrice: price(2200), Category: "Beauty", Image: "https://images.unsplash.com/photo-1556228578-0d85b1a4d571?w=400", Rating: 4.2, Reviews: 67, Description: "Natural skincare cream", Stock: 40},
		{Name: "Portable Bluetooth Speaker", Price: 3200, OriginalPrice: price(4000), Category: "Electronics", Image: "https://images.unsplash.com/photo-1608043152269-423dbba4e7e1?w=400", Rating: 4.5, Reviews: 98, Description: "Waterproof portable speaker", Stock: 35},
	}
}
