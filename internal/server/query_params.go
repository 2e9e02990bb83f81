package server

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

func parseOptionalInt64(value string) (*int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// parsePage reads limit/offset, clamping the limit to maxPageSize.
func parsePage(rawLimit, rawOffset string) (int, int, error) {
	limit := defaultPageSize
	if raw := strings.TrimSpace(rawLimit); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return 0, 0, newValidationError("limit", "invalid_limit", "invalid limit")
		}
		limit = min(parsed, maxPageSize)
	}

	offset := 0
	if raw := strings.TrimSpace(rawOffset); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return 0, 0, newValidationError("offset", "invalid_offset", "invalid offset")
		}
		offset = parsed
	}
	return limit, offset, nil
}

func pathID(c *gin.Context) string {
	return strings.TrimSpace(c.Param("id"))
}
