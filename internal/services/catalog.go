package services

import (
	"context"
	"fmt"

	"github.com/localnerve/callcard/internal/callcard"
	"github.com/localnerve/callcard/internal/models"
	"gorm.io/gorm"
)

// CategoryService resolves product categories from the catalog.
type CategoryService struct {
	db *gorm.DB
}

func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

// CategoriesFor maps every product of the game type to its first category,
// in catalog order, that appears in filter.
func (s *CategoryService) CategoriesFor(ctx context.Context, gameTypeID int, filter []int) (map[string]int, error) {
	if len(filter) == 0 {
		return nil, nil
	}

	var rows []models.ProductCategory
	err := quiet(conn(ctx, s.db)).
		Where("game_type_id = ? AND category_code IN ?", gameTypeID, filter).
		Order("product_id, ordering, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("product categories: %w", err)
	}

	codes := make(map[string][]int)
	var products []string
	for _, r := range rows {
		if _, ok := codes[r.ProductID]; !ok {
			products = append(products, r.ProductID)
		}
		codes[r.ProductID] = append(codes[r.ProductID], r.CategoryCode)
	}

	out := make(map[string]int, len(products))
	for _, p := range products {
		if code, ok := callcard.FirstCategory(codes[p], filter); ok {
			out[p] = code
		}
	}
	return out, nil
}

// PropertyService reads the metadata key catalog.
type PropertyService struct {
	db *gorm.DB
}

func NewPropertyService(db *gorm.DB) *PropertyService {
	return &PropertyService{db: db}
}

// PropertiesFor returns the catalog properties of an item type keyed by name
func (s *PropertyService) PropertiesFor(ctx context.Context, itemTypeID int) (callcard.Properties, error) {
	var keys []models.PropertyKey
	err := quiet(conn(ctx, s.db)).
		Where("item_type_id = ?", itemTypeID).
		Find(&keys).Error
	if err != nil {
		return nil, fmt.Errorf("properties of item type %d: %w", itemTypeID, err)
	}

	props := make(callcard.Properties, len(keys))
	for _, k := range keys {
		props[k.Name] = callcard.PropertyDef{ID: k.ID, DataType: callcard.DataType(k.DataType)}
	}
	return props, nil
}
