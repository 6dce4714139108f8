package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// queryInt reads an integer query param, falling back when absent or
// malformed.
func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// queryDate reads a YYYY-MM-DD query param, returning nil when absent
// or malformed.
func queryDate(c *gin.Context, key string) *time.Time {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	return &date
}
