package repository

import (
	"context"
	"errors"

	"github.com/campusbridge/marketplace-backend/internal/common"
	"github.com/campusbridge/marketplace-backend/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository product lookup interface
type ProductRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	Save(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id string) error
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new ProductRepository
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// FindByID finds a product by ID
func (r *productRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &common.NotFoundError{Resource: "product", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Save inserts or updates a product
func (r *productRepository) Save(ctx context.Context, p *domain.Product) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "seller_id", "updated_at"}),
	}).Create(p).Error
}

// Delete removes a product. Collaborations referencing it are left alone.
func (r *productRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Product{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &common.NotFoundError{Resource: "product", ID: id}
	}
	return nil
}
