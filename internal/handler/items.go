package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/shopstack/itemstore/internal/apperr"
	"github.com/shopstack/itemstore/internal/model"
	"github.com/shopstack/itemstore/internal/response"
)

// ItemStore is the persistence surface the handlers consume.
// *repository.ItemRepository implements it.
type ItemStore interface {
	List(ctx context.Context) ([]model.Item, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.Item, bool, error)
	Create(ctx context.Context, item *model.Item) error
	Update(ctx context.Context, item *model.Item) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// ItemHandler handles /api/items. Handlers only catch what they can act
// on (body validation); every other failure is returned classified and
// surfaces to the request interceptor.
type ItemHandler struct {
	Store    ItemStore
	Validate *validator.Validate
}

// NewItemHandler returns an ItemHandler over the given store.
func NewItemHandler(store ItemStore) *ItemHandler {
	return &ItemHandler{Store: store, Validate: validator.New()}
}

// itemRequest is the create/update body. Price is in dollars and is
// converted to integer cents before it reaches the store.
type itemRequest struct {
	Name     string  `json:"name" validate:"required"`
	Category string  `json:"category" validate:"required"`
	Price    float64 `json:"price" validate:"required,gt=0"`
}

// bindItem binds and validates the request body. Failures come back as
// classified validation errors; the store is never touched for them.
func (h *ItemHandler) bindItem(c echo.Context) (*itemRequest, error) {
	var req itemRequest
	if err := c.Bind(&req); err != nil {
		return nil, apperr.Validation("invalid JSON body")
	}
	if err := h.Validate.Struct(&req); err != nil {
		msg := "invalid request body"
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			if f.Tag() == "required" {
				msg = fmt.Sprintf("missing required field: %s", strings.ToLower(f.Field()))
			} else {
				msg = fmt.Sprintf("invalid value for field: %s", strings.ToLower(f.Field()))
			}
		}
		return nil, apperr.Validation(msg)
	}
	return &req, nil
}

func itemID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid item id")
	}
	return id, nil
}

// ListItems returns all items (GET /api/items).
func (h *ItemHandler) ListItems(c echo.Context) error {
	items, err := h.Store.List(c.Request().Context())
	if err != nil {
		return apperr.Database("list items failed", err)
	}
	if items == nil {
		items = []model.Item{}
	}
	return response.OK(c, map[string]any{"items": items}, "")
}

// GetItem returns one item (GET /api/items/:id).
func (h *ItemHandler) GetItem(c echo.Context) error {
	id, err := itemID(c)
	if err != nil {
		return err
	}
	item, found, err := h.Store.GetByID(c.Request().Context(), id)
	if err != nil {
		return apperr.Database("get item failed", err)
	}
	if !found {
		return apperr.NotFound("item not found")
	}
	return response.OK(c, item, "")
}

// CreateItem creates an item (POST /api/items).
func (h *ItemHandler) CreateItem(c echo.Context) error {
	req, err := h.bindItem(c)
	if err != nil {
		return err
	}
	item := model.Item{
		Name:       req.Name,
		Category:   req.Category,
		PriceCents: model.PriceToCents(req.Price),
	}
	if err := h.Store.Create(c.Request().Context(), &item); err != nil {
		return apperr.Database("create item failed", err)
	}
	return response.Created(c, item, "")
}

// UpdateItem replaces an item's fields (PUT /api/items/:id).
func (h *ItemHandler) UpdateItem(c echo.Context) error {
	id, err := itemID(c)
	if err != nil {
		return err
	}
	req, err := h.bindItem(c)
	if err != nil {
		return err
	}
	item := model.Item{
		ID:         id,
		Name:       req.Name,
		Category:   req.Category,
		PriceCents: model.PriceToCents(req.Price),
	}
	found, err := h.Store.Update(c.Request().Context(), &item)
	if err != nil {
		return apperr.Database("update item failed", err)
	}
	if !found {
		return apperr.NotFound("item not found")
	}
	return response.OK(c, item, "")
}

// DeleteItem removes an item (DELETE /api/items/:id).
func (h *ItemHandler) DeleteItem(c echo.Context) error {
	id, err := itemID(c)
	if err != nil {
		return err
	}
	found, err := h.Store.Delete(c.Request().Context(), id)
	if err != nil {
		return apperr.Database("delete item failed", err)
	}
	if !found {
		return apperr.NotFound("item not found")
	}
	return response.OK(c, nil, "item deleted")
}
