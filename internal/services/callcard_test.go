package services

import (
	"context"
	"testing"

	"github.com/localnerve/callcard/internal/callcard"
	"github.com/localnerve/callcard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type eventLog []callcard.Event

func (l *eventLog) Emit(_ context.Context, e callcard.Event) {
	*l = append(*l, e)
}

func newCallcardService(db *gorm.DB, events callcard.Emitter) *callcard.Service {
	return callcard.New(callcard.Deps{
		Store:      NewCardStore(db),
		Templates:  NewTemplateService(db),
		Categories: NewCategoryService(db),
		Properties: NewPropertyService(db),
		History:    NewHistoryService(db),
		Orders:     NewOrderService(db),
		Geo:        NewAddressService(db),
		Settings:   NewDBSettings(db),
		Events:     events,
		Audit:      NewAuditLog(db),
	})
}

func seedCatalog(t *testing.T, db *gorm.DB) {
	mustCreate(t, db,
		&models.Template{ID: "5b7e0c1a-2f3d-4e5f-8a9b-0c1d2e3f4a5b", Name: "weekly", UserGroupID: "g1", GameTypeID: 7, Active: true},
		&models.TemplateEntry{ID: "te1", TemplateID: "5b7e0c1a-2f3d-4e5f-8a9b-0c1d2e3f4a5b", ItemID: "p1", ItemTypeID: callcard.ItemTypeProduct, Properties: callcard.PropertySales},
		&models.TemplatePOS{ID: "tp1", TemplateID: "5b7e0c1a-2f3d-4e5f-8a9b-0c1d2e3f4a5b", CounterpartyID: "shop-a", GroupID: ptr(1), Active: true},
		&models.PropertyKey{ID: "k1", ItemTypeID: callcard.ItemTypeCardIndex, Name: callcard.PropertySales, DataType: "integer"},
	)
}

func TestCallcardOverGorm(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)
	var events eventLog
	svc := newCallcardService(db, &events)
	ctx := context.Background()
	scope := callcard.Scope{UserID: "u1", UserGroupID: "g1", GameTypeID: 7}

	view, err := svc.View(ctx, callcard.ViewRequest{Scope: scope})
	require.NoError(t, err)
	require.Len(t, view.Groups, 1)
	assert.Equal(t, "shop-a", view.Groups[0].RefUsers[0].CounterpartyID)

	order := callcard.StatusOrder
	card := callcard.CardView{
		ID: view.ID,
		Groups: []callcard.Group{{GroupID: 1, RefUsers: []callcard.RefUserView{{
			ID:             "tmp-1",
			CounterpartyID: "shop-a",
			Status:         &order,
			Active:         true,
			Actions: []callcard.Action{{ItemTypeID: callcard.ItemTypeProduct, Items: []callcard.Item{{
				ItemID:     "p1",
				ItemTypeID: callcard.ItemTypeProduct,
				Attributes: []callcard.Attribute{{PropertyName: callcard.PropertySales, Value: ptr("5")}},
			}}}},
		}}}},
	}
	id, err := svc.Sync(ctx, callcard.SyncRequest{Scope: scope, Card: card})
	require.NoError(t, err)
	assert.Equal(t, view.ID, id)

	card.Groups[0].RefUsers[0].Actions[0].Items[0].Attributes[0].Value = ptr("8")
	_, err = svc.Sync(ctx, callcard.SyncRequest{Scope: scope, Card: card})
	require.NoError(t, err)

	var orders []models.SalesOrder
	require.NoError(t, db.Order("revision").Find(&orders).Error)
	require.Len(t, orders, 2)
	assert.False(t, orders[0].Active)
	assert.True(t, orders[1].Active)

	var refs int64
	db.Model(&models.RefUser{}).Count(&refs)
	assert.Equal(t, int64(1), refs, "the token resolves to the same RefUser")

	view, err = svc.View(ctx, callcard.ViewRequest{Scope: scope})
	require.NoError(t, err)
	attrs := view.Groups[0].RefUsers[0].Actions[0].Items[0].Attributes
	require.Len(t, attrs, 1)
	assert.Equal(t, "8", *attrs[0].Value, "order values show through the view")

	assert.Equal(t, callcard.EventDownloaded, events[0].Kind)
}
