package handler // HTTP handlers for the admission service

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
)

// getMemberID extracts the authenticated member ID from the context.
// JWTAuth stores the sub claim, which arrives as float64 from
// MapClaims; other numeric forms are tolerated.
func getMemberID(c echo.Context) (uint64, error) {
	v := c.Get("member_id")
	switch t := v.(type) {
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
	return 0, errors.New("invalid member_id in context")
}
