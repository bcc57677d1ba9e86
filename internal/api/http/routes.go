package httpapi

import (
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"utilstats/internal/tempdata"
	"utilstats/internal/wunderground"
)

var validate = validator.New()

// storeFacade serializes handler access to the temperature store. The store
// itself is single-caller by design and carries no locking, so the facade
// owns the mutex instead.
type storeFacade struct {
	mu    sync.Mutex
	store *tempdata.Store
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, store *tempdata.Store) {
	f := &storeFacade{store: store}

	v1 := app.Group("/api/v1")

	v1.Get("/temperature/daily", func(c *fiber.Ctx) error {
		dateStr := c.Query("date")
		if dateStr == "" {
			return fiber.NewError(fiber.StatusBadRequest, "date query parameter is required")
		}
		date, err := tempdata.ParseDate(dateStr)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		f.mu.Lock()
		day, err := f.store.Day(c.Context(), date)
		f.mu.Unlock()
		if err != nil {
			return statusError(err)
		}

		return c.JSON(dailyResponse{
			Date: date.String(),
			Mean: day.Mean,
			Min:  day.Min,
			Max:  day.Max,
		})
	})

	v1.Get("/temperature/average", func(c *fiber.Ctx) error {
		var req averageQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		f.mu.Lock()
		avg, err := f.store.Average(c.Context(), req.from, req.to, req.stat)
		f.mu.Unlock()
		if err != nil {
			return statusError(err)
		}

		return c.JSON(fiber.Map{
			"from":    req.from.String(),
			"to":      req.to.String(),
			"stat":    string(req.stat),
			"average": avg,
		})
	})
}

type dailyResponse struct {
	Date string `json:"date"`
	Mean int    `json:"meanF"`
	Min  *int   `json:"minF,omitempty"`
	Max  *int   `json:"maxF,omitempty"`
}

// averageQuery holds query parameters for the average endpoint. The range is
// half-open: from is included, to is excluded.
type averageQuery struct {
	From string `validate:"required"`
	To   string `validate:"required"`
	Stat string `validate:"omitempty,oneof=min mean max"`

	from tempdata.Date
	to   tempdata.Date
	stat tempdata.Stat
}

func (q *averageQuery) bind(c *fiber.Ctx) error {
	q.From = c.Query("from")
	q.To = c.Query("to")
	q.Stat = c.Query("stat")

	if err := validate.Struct(q); err != nil {
		return err
	}

	var err error
	if q.from, err = tempdata.ParseDate(q.From); err != nil {
		return err
	}
	if q.to, err = tempdata.ParseDate(q.To); err != nil {
		return err
	}

	q.stat = tempdata.StatMean
	if q.Stat != "" {
		q.stat = tempdata.Stat(q.Stat)
	}
	return nil
}

// statusError maps the temperature store's error taxonomy onto HTTP statuses.
func statusError(err error) error {
	var (
		missing      *tempdata.MissingDataError
		invalidRange *tempdata.InvalidRangeError
		fetchErr     *wunderground.FetchError
	)
	switch {
	case errors.As(err, &missing):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.As(err, &invalidRange):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.As(err, &fetchErr):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to query temperature data")
	}
}
