package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ops-manager/internal/concessions"
	"github.com/iliyamo/cinema-ops-manager/internal/model"
)

func TestConcessionHandler_Menu(t *testing.T) {
	log, _ := test.NewNullLogger()
	var gotKind model.MenuKind
	h := NewConcessionHandler(&mockConcessions{
		menuFn: func(_ context.Context, kind model.MenuKind) ([]model.MenuItem, error) {
			gotKind = kind
			return []model.MenuItem{{ID: 1, Name: "Popcorn", Kind: model.MenuSnack, Price: 9000}}, nil
		},
	}, log)

	c, rec := newContext(http.MethodGet, "/v1/menu?kind=snack", "", 0)
	require.NoError(t, h.Menu(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.MenuSnack, gotKind)
	assert.Contains(t, rec.Body.String(), `"name":"Popcorn"`)
}

func TestConcessionHandler_PlaceOrder(t *testing.T) {
	log, _ := test.NewNullLogger()
	var gotLines []concessions.LineInput
	h := NewConcessionHandler(&mockConcessions{
		placeFn: func(_ context.Context, userID uint64, lines []concessions.LineInput, method model.PaymentMethod) (*model.FoodOrder, error) {
			gotLines = lines
			assert.Equal(t, uint64(7), userID)
			assert.Equal(t, model.MethodCash, method)
			return &model.FoodOrder{ID: 3, UserID: userID, Total: 18000, Status: model.OrderActive}, nil
		},
	}, log)

	c, rec := newContext(http.MethodPost, "/v1/orders",
		`{"items":[{"item_id":1,"quantity":2}],"payment_method":"cash"}`, 7)
	require.NoError(t, h.PlaceOrder(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []concessions.LineInput{{ItemID: 1, Quantity: 2}}, gotLines)

	var o model.FoodOrder
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &o))
	assert.Equal(t, 18000, o.Total)
}

func TestConcessionHandler_PlaceOrderErrors(t *testing.T) {
	log, _ := test.NewNullLogger()
	h := NewConcessionHandler(&mockConcessions{
		placeFn: func(context.Context, uint64, []concessions.LineInput, model.PaymentMethod) (*model.FoodOrder, error) {
			return nil, model.ErrInvalidState
		},
	}, log)

	c, rec := newContext(http.MethodPost, "/v1/orders", `{"items":[{"item_id":1,"quantity":9}]}`, 7)
	require.NoError(t, h.PlaceOrder(c))
	assert.Equal(t, http.StatusConflict, rec.Code)

	c, rec = newContext(http.MethodPost, "/v1/orders", `{"items":[]}`, 0)
	require.NoError(t, h.PlaceOrder(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c, rec = newContext(http.MethodPost, "/v1/orders", `{"items":[],"payment_method":"gold"}`, 7)
	require.NoError(t, h.PlaceOrder(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConcessionHandler_CancelOrder(t *testing.T) {
	log, _ := test.NewNullLogger()
	h := NewConcessionHandler(&mockConcessions{
		cancelFn: func(_ context.Context, userID, id uint64) (*model.FoodOrder, error) {
			if id == 5 {
				return nil, model.ErrAlreadyCancelled
			}
			return &model.FoodOrder{ID: id, UserID: userID, Status: model.OrderCancelled}, nil
		},
	}, log)

	c, rec := newContext(http.MethodPost, "/v1/orders/4/cancel", "", 7, "id", "4")
	require.NoError(t, h.CancelOrder(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = newContext(http.MethodPost, "/v1/orders/5/cancel", "", 7, "id", "5")
	require.NoError(t, h.CancelOrder(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestConcessionHandler_UpdateItem(t *testing.T) {
	log, _ := test.NewNullLogger()
	h := NewConcessionHandler(&mockConcessions{
		updateFn: func(_ context.Context, id uint64, stock *int, active *bool) (*model.MenuItem, error) {
			require.NotNil(t, stock)
			assert.Nil(t, active)
			return &model.MenuItem{ID: id, Stock: *stock, IsActive: true}, nil
		},
	}, log)

	c, rec := newContext(http.MethodPatch, "/v1/admin/menu/2", `{"stock":40}`, 1, "id", "2")
	require.NoError(t, h.UpdateItem(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"stock":40`)

	c, rec = newContext(http.MethodPatch, "/v1/admin/menu/2", `{}`, 1, "id", "2")
	require.NoError(t, h.UpdateItem(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
