package utils

import (
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/event"
)

type MongoMetrics struct {
	ActiveConnections  int64     `json:"activeConnections"`
	CreatedConnections int64     `json:"createdConnections"`
	ClosedConnections  int64     `json:"closedConnections"`
	LastCheckTime      time.Time `json:"lastCheckTime"`
}

var metrics MongoMetrics

func IncrementActiveConnections() {
	atomic.AddInt64(&metrics.ActiveConnections, 1)
}

func DecrementActiveConnections() {
	atomic.AddInt64(&metrics.ActiveConnections, -1)
}

func GetMongoMetrics() MongoMetrics {
	return MongoMetrics{
		ActiveConnections:  atomic.LoadInt64(&metrics.ActiveConnections),
		CreatedConnections: atomic.LoadInt64(&metrics.CreatedConnections),
		ClosedConnections:  atomic.LoadInt64(&metrics.ClosedConnections),
		LastCheckTime:      time.Now(),
	}
}

// MongoPoolMonitor feeds the pool counters from driver events.
func MongoPoolMonitor() *event.PoolMonitor {
	return &event.PoolMonitor{
		Event: func(e *event.PoolEvent) {
			switch e.Type {
			case event.ConnectionCreated:
				atomic.AddInt64(&metrics.CreatedConnections, 1)
			case event.ConnectionClosed:
				atomic.AddInt64(&metrics.ClosedConnections, 1)
			case event.GetSucceeded:
				IncrementActiveConnections()
			case event.ConnectionReturned:
				DecrementActiveConnections()
			}
		},
	}
}
