package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// pathID parses the :id route param. Anything that is not a positive integer
// cannot name a record, so it is reported as not found.
func pathID(ctx *gin.Context, notFound string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondNotFound(ctx, notFound)
		return 0, false
	}
	return id, true
}

// parseIDList parses a comma separated id list such as "1,2,3".
func parseIDList(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	out := make([]int64, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid id %q", p)
		}
		out = append(out, id)
	}

	return out, nil
}

// queryFlag reads a boolean query param such as ?assigned_only=1.
func queryFlag(ctx *gin.Context, name string) (bool, error) {
	raw := strings.TrimSpace(ctx.Query(name))
	if raw == "" {
		return false, nil
	}

	return strconv.ParseBool(raw)
}
