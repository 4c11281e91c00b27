package handlers

import (
	"database/sql"
	"sync"

	"github.com/carlos-juma/branch.it-IMY220/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

var registerGauges sync.Once

// RegisterRuntimeGauges exposes scrape-time gauges for the connection pool,
// live SSE clients and the queue mode.
func RegisterRuntimeGauges(db *gorm.DB, hub *services.ActivityHub) {
	registerGauges.Do(func() {
		dbStat := func(pick func(sql.DBStats) int) func() float64 {
			return func() float64 {
				sqlDB, err := db.DB()
				if err != nil {
					return 0
				}
				return float64(pick(sqlDB.Stats()))
			}
		}

		prometheus.MustRegister(
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: "branchit", Name: "db_open_connections", Help: "Number of open DB connections",
			}, dbStat(func(s sql.DBStats) int { return s.OpenConnections })),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: "branchit", Name: "db_in_use_connections", Help: "Number of in-use DB connections",
			}, dbStat(func(s sql.DBStats) int { return s.InUse })),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: "branchit", Name: "db_idle_connections", Help: "Number of idle DB connections",
			}, dbStat(func(s sql.DBStats) int { return s.Idle })),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: "branchit", Name: "sse_active_clients", Help: "Number of active SSE connections",
			}, func() float64 { return float64(hub.ClientCount()) }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: "branchit", Name: "queue_async_enabled", Help: "Whether the Redis task queue is in use (1=yes, 0=no)",
			}, func() float64 {
				if q := services.GetTaskQueue(); q != nil && q.IsAsync() {
					return 1
				}
				return 0
			}),
		)
	})
}

// Metrics serves the Prometheus registry.
// GET /metrics
func Metrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
