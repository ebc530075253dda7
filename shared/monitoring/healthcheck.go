package monitoring

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthHandler answers liveness checks. It reports ok whenever the
// process can serve HTTP.
func HealthHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}

// StatusHandler reports the Monitor snapshot, answering 503 while the last
// background probe failed.
func StatusHandler(m *Monitor) echo.HandlerFunc {
	return func(c echo.Context) error {
		snapshot := m.Snapshot()
		status := http.StatusOK
		if !snapshot.Healthy {
			status = http.StatusServiceUnavailable
		}
		return c.JSON(status, snapshot)
	}
}
