package handler

import (
	"fmt"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
)

func queryInt64(c *app.RequestContext, name string) (int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, fmt.Errorf("missing query parameter %q", name)
	}
	return strconv.ParseInt(raw, 10, 64)
}

func paramInt64(c *app.RequestContext, name string) (int64, error) {
	raw := c.Param(name)
	if raw == "" {
		return 0, fmt.Errorf("missing path parameter %q", name)
	}
	return strconv.ParseInt(raw, 10, 64)
}
