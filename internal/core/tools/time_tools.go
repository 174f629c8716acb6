package tools

import (
	"context"
	"fmt"
	"time"
)

func currentTimeTool(now func() time.Time) *Tool {
	if now == nil {
		now = time.Now
	}
	return &Tool{
		Name:        "current_time",
		Description: "Get the current date and time in ISO 8601 format. Optionally pass an IANA timezone such as Europe/London.",
		Parameters: objectSchema(map[string]any{
			"timezone": stringParam("Optional IANA timezone name; defaults to the server's local time"),
		}),
		Handler: func(_ context.Context, inv Invocation) (string, error) {
			t := now()
			if tz := stringArg(inv.Args, "timezone"); tz != "" {
				loc, err := time.LoadLocation(tz)
				if err != nil {
					return "", fmt.Errorf("unknown timezone %q", tz)
				}
				t = t.In(loc)
			}
			return t.Format(time.RFC3339), nil
		},
	}
}
