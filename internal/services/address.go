package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/localnerve/callcard/internal/callcard"
	"github.com/localnerve/callcard/internal/models"
	"gorm.io/gorm"
)

// coordinateEpsilon is the distance in degrees under which two positions are the same address.
const coordinateEpsilon = 1e-6

// AddressService keeps the last known positions of counterparties.
type AddressService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewAddressService(db *gorm.DB) *AddressService {
	return &AddressService{db: db, now: time.Now}
}

var _ callcard.GeoLookup = (*AddressService)(nil)

// GeoFor returns the latest position of each counterparty that has one
func (s *AddressService) GeoFor(ctx context.Context, counterpartyIDs []string) (map[string]callcard.GeoPoint, error) {
	out := make(map[string]callcard.GeoPoint)
	if len(counterpartyIDs) == 0 {
		return out, nil
	}

	var rows []models.Address
	err := quiet(conn(ctx, s.db)).
		Where("counterparty_id IN ?", counterpartyIDs).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("addresses: %w", err)
	}
	for _, a := range rows {
		if _, ok := out[a.CounterpartyID]; ok {
			continue
		}
		out[a.CounterpartyID] = callcard.GeoPoint{Latitude: a.Latitude, Longitude: a.Longitude}
	}
	return out, nil
}

// CreateOrReuseAddress returns the latest address of the counterparty when
// it matches p, or records a new one.
func (s *AddressService) CreateOrReuseAddress(ctx context.Context, counterpartyID string, p callcard.GeoPoint) (string, error) {
	db := conn(ctx, s.db)

	var latest []models.Address
	if err := db.Where("counterparty_id = ?", counterpartyID).Order("created_at DESC").Limit(1).Find(&latest).Error; err != nil {
		return "", fmt.Errorf("address of %s: %w", counterpartyID, err)
	}
	if len(latest) == 1 &&
		math.Abs(latest[0].Latitude-p.Latitude) < coordinateEpsilon &&
		math.Abs(latest[0].Longitude-p.Longitude) < coordinateEpsilon {
		return latest[0].ID, nil
	}

	a := models.Address{
		ID:             uuid.NewString(),
		CounterpartyID: counterpartyID,
		Latitude:       p.Latitude,
		Longitude:      p.Longitude,
		CreatedAt:      s.now().UTC(),
	}
	if err := db.Create(&a).Error; err != nil {
		return "", fmt.Errorf("create address of %s: %w", counterpartyID, err)
	}
	return a.ID, nil
}
