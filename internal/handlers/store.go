package handlers

import (
	"strconv"

	apperrors "scanpay/internal/errors"
	"scanpay/internal/services/geo"
	"scanpay/internal/services/store"
	"scanpay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type StoreHandler struct {
	stores  store.Service
	locator geo.Service
}

func NewStoreHandler(stores store.Service, locator geo.Service) *StoreHandler {
	return &StoreHandler{
		stores:  stores,
		locator: locator,
	}
}

// Nearby lists open stores around ?lat=&lng=, closest first.
func (h *StoreHandler) Nearby(c *fiber.Ctx) error {
	var q geo.Query

	lat, err := queryFloat(c, "lat")
	if err != nil {
		return writeError(c, apperrors.ErrInvalidQuery)
	}
	lng, err := queryFloat(c, "lng")
	if err != nil {
		return writeError(c, apperrors.ErrInvalidQuery)
	}
	q.Lat, q.Lng = lat, lng

	if raw := c.Query("radiusKm"); raw != "" {
		radius, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return writeError(c, apperrors.ErrInvalidQuery)
		}
		q.RadiusKm = radius
	}

	results, err := h.locator.Nearby(c.UserContext(), q)
	if err != nil {
		return writeError(c, err)
	}

	return response.Success(c, "Nearby stores retrieved", results)
}

func (h *StoreHandler) GetStore(c *fiber.Ctx) error {
	s, err := h.stores.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, "Store retrieved", s)
}

// queryFloat returns nil when the parameter is absent.
func queryFloat(c *fiber.Ctx, key string) (*float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
