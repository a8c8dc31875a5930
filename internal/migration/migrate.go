package migration

import (
	"github.com/campusbridge/marketplace-backend/internal/domain"
	"github.com/campusbridge/marketplace-backend/pkg/storage"
	"gorm.io/gorm"
)

// Run creates the kv_entries and products tables when they are missing.
func Run(db *gorm.DB) error {
	// AutoMigrate - 테이블 없으면 생성, 있으면 skip
	return db.AutoMigrate(&storage.Entry{}, &domain.Product{})
}

// SeedDemo inserts a sample project when the products table is empty (local only).
func SeedDemo(db *gorm.DB) error {
	var count int64
	if err := db.Model(&domain.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	products := []domain.Product{
		{ID: "1", Title: "AI Water Purifier", SellerID: "student1"},
		{ID: "2", Title: "Solar Backpack Charger", SellerID: "student2"},
	}
	return db.Create(&products).Error
}
