package domain

import "time"

// Product is the slice of a listing the messaging core needs: its title for
// message templates and the owning seller for addressing requests.
type Product struct {
	ID        string    `gorm:"column:id;primaryKey;size:64" json:"id"`
	Title     string    `gorm:"column:title;size:255;not null" json:"title"`
	SellerID  string    `gorm:"column:seller_id;size:64;index" json:"seller_id"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}
