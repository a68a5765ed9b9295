package ble

import (
	"context"
	"net"
	"strings"
	"sync"

	"github.com/go-ble/ble"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var (
	successfulConnectionsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stylus_bridge_ble_successful_connections_total",
	})
	failedConnectionsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stylus_bridge_ble_failed_connections_total",
	})
	connectionsFromPoolCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stylus_bridge_ble_reused_connections_total",
	})
	disconnectsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stylus_bridge_ble_disconnections_total",
	})
)

type connectionPool struct {
	mu sync.Mutex

	connections map[string]Client
}

func initConnectionPool() *connectionPool {
	return &connectionPool{
		connections: make(map[string]ble.Client),
	}
}

func poolKey(addr net.HardwareAddr) string {
	return strings.ToLower(addr.String())
}

func (h *Handle) dial(ctx context.Context, addr net.HardwareAddr) (Client, error) {
	c, err := h.dev.Dial(ctx, ble.NewAddr(addr.String()))

	if err != nil {
		failedConnectionsCounter.Inc()
		return nil, err
	}

	successfulConnectionsCounter.Inc()
	log.Debug().Stringer("Addr", addr).Msg("ble: successfully opened new connection to device")

	return c, nil
}

// Connect opens a connection to addr, or returns the pooled one when connections are persisted.
func (h *Handle) Connect(ctx context.Context, addr net.HardwareAddr) (Client, error) {
	if h.connPool == nil {
		return h.dial(ctx, addr)
	}

	key := poolKey(addr)

	h.connPool.mu.Lock()
	defer h.connPool.mu.Unlock()

	if conn := h.connPool.connections[key]; conn != nil {
		connectionsFromPoolCounter.Inc()
		log.Trace().Stringer("Addr", addr).Msg("ble: reusing connection from connection pool")
		return conn, nil
	}

	conn, err := h.dial(ctx, addr)

	if err != nil {
		return nil, err
	}

	h.connPool.connections[key] = conn

	// spawn a watchdog removing the entry from the connection pool when the connection breaks.
	go func() {
		<-conn.Disconnected()

		disconnectsCounter.Inc()
		log.Debug().Stringer("Addr", addr).Msg("ble: connection with device closed, cleaning up")

		h.connPool.mu.Lock()
		defer h.connPool.mu.Unlock()

		if h.connPool.connections[key] == conn {
			delete(h.connPool.connections, key)
		}
	}()

	return conn, nil
}

// Release hands back a connection obtained from Connect. Pooled connections stay open.
func (h *Handle) Release(conn Client) error {
	if h.connPool != nil {
		return nil
	}

	disconnectsCounter.Inc()

	return conn.CancelConnection()
}

// Clear the connection pool (if any) and close all connections.
func (h *Handle) DisconnectAll() {
	if h.connPool == nil {
		return
	}

	h.connPool.mu.Lock()
	defer h.connPool.mu.Unlock()

	for _, conn := range h.connPool.connections {
		conn.CancelConnection()
	}

	h.connPool.connections = make(map[string]ble.Client)
}
