package fiberlog

import (
	"time"

	"github.com/gofiber/fiber/v2"
	authutils "spice-portal-backend/lib/utils/auth-utils"
)

const (
	TagPid       = "pid"
	TagLatency   = "latency"
	TagStatus    = "status"
	TagMethod    = "method"
	TagPath      = "path"
	TagURL       = "url"
	TagIP        = "ip"
	TagUA        = "ua"
	TagBody      = "body"
	TagResBody   = "resBody"
	TagQuery     = "query"
	TagRoute     = "route"
	TagUserID    = "user_id"
	RequestID    = "request_id"
	maxBodyBytes = 4096
)

// FuncTag produces the value logged for a tag
type FuncTag func(c *fiber.Ctx, d *data) interface{}

type data struct {
	pid   int
	start time.Time
	end   time.Time
}

func getFuncTagMap(cfg Config, d *data) map[string]FuncTag {
	all := map[string]FuncTag{
		TagPid: func(c *fiber.Ctx, d *data) interface{} {
			return d.pid
		},
		TagLatency: func(c *fiber.Ctx, d *data) interface{} {
			return d.end.Sub(d.start).String()
		},
		TagStatus: func(c *fiber.Ctx, d *data) interface{} {
			return c.Response().StatusCode()
		},
		TagMethod: func(c *fiber.Ctx, d *data) interface{} {
			return c.Method()
		},
		TagPath: func(c *fiber.Ctx, d *data) interface{} {
			return c.Path()
		},
		TagURL: func(c *fiber.Ctx, d *data) interface{} {
			return c.OriginalURL()
		},
		TagIP: func(c *fiber.Ctx, d *data) interface{} {
			return c.IP()
		},
		TagUA: func(c *fiber.Ctx, d *data) interface{} {
			return c.Get(fiber.HeaderUserAgent)
		},
		TagBody: func(c *fiber.Ctx, d *data) interface{} {
			return clip(c.Body())
		},
		TagResBody: func(c *fiber.Ctx, d *data) interface{} {
			if string(c.Response().Header.ContentType()) != fiber.MIMEApplicationJSON &&
				string(c.Response().Header.ContentType()) != fiber.MIMEApplicationJSONCharsetUTF8 {
				return ""
			}
			return clip(c.Response().Body())
		},
		TagQuery: func(c *fiber.Ctx, d *data) interface{} {
			return string(c.Request().URI().QueryString())
		},
		TagRoute: func(c *fiber.Ctx, d *data) interface{} {
			if r := c.Route(); r != nil {
				return r.Path
			}
			return ""
		},
		TagUserID: func(c *fiber.Ctx, d *data) interface{} {
			userID, _ := authutils.GetClaims(c)["sub"].(string)
			return userID
		},
		RequestID: func(c *fiber.Ctx, d *data) interface{} {
			return c.GetRespHeader(fiber.HeaderXRequestID)
		},
	}
	result := make(map[string]FuncTag, len(cfg.Tags))
	for _, tag := range cfg.Tags {
		if ft, ok := all[tag]; ok {
			result[tag] = ft
		}
	}
	return result
}

func clip(body []byte) string {
	if len(body) > maxBodyBytes {
		return string(body[:maxBodyBytes]) + "..."
	}
	return string(body)
}
