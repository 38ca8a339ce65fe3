package handler // handler defines the HTTP handlers

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
)

// getOperatorID extracts the authenticated operator id stored in the Echo
// context by the JWT middleware and converts it to uint64. JWT numeric
// claims decode as float64; string subjects are parsed for robustness.
func getOperatorID(c echo.Context) (uint64, error) {
	switch t := c.Get("operator_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid operator_id in context")
}

// pathID parses a numeric :id path parameter. Zero is never a valid id.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
