package ble

import (
	"context"
	"fmt"

	"github.com/go-ble/ble"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/robertof/go-stylus-bridge/device"
	"github.com/robertof/go-stylus-bridge/session"
)

var (
	ErrServiceNotFound        = errors.New("GATT service not found")
	ErrCharacteristicNotFound = errors.New("GATT characteristic not found")
	ErrNotifyNotSupported     = errors.New("characteristic does not support notifications")
)

var (
	subscriptionsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stylus_bridge_ble_subscriptions_total",
	}, []string{"result"})
	notificationsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stylus_bridge_ble_notifications_total",
	})
)

// NotificationSubscriber subscribes to one characteristic of whichever device it is asked for.
// It is the session's view of the BLE stack.
type NotificationSubscriber struct {
	h              *Handle
	service        UUID
	characteristic UUID
}

func (h *Handle) NotificationSubscriber(service, characteristic string) (*NotificationSubscriber, error) {
	svc, err := ParseUUID(service)
	if err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}

	char, err := ParseUUID(characteristic)
	if err != nil {
		return nil, fmt.Errorf("characteristic: %w", err)
	}

	return &NotificationSubscriber{
		h:              h,
		service:        svc,
		characteristic: char,
	}, nil
}

type Subscription struct {
	h        *Handle
	conn     Client
	char     *Characteristic
	indicate bool
	device   device.ID
}

var _ session.Subscriber = (*NotificationSubscriber)(nil)

func (n *NotificationSubscriber) Subscribe(
	ctx context.Context,
	id device.ID,
	onNotification func(payload []byte),
) (session.Subscription, error) {
	sub, err := n.subscribe(ctx, id, onNotification)

	if err != nil {
		subscriptionsCounter.WithLabelValues("failure").Inc()
		return nil, err
	}

	subscriptionsCounter.WithLabelValues("success").Inc()

	return sub, nil
}

func (n *NotificationSubscriber) subscribe(
	ctx context.Context,
	id device.ID,
	onNotification func(payload []byte),
) (*Subscription, error) {
	addr, err := id.Addr()
	if err != nil {
		return nil, errors.Wrapf(err, "invalid device address %q", id)
	}

	conn, err := n.h.Connect(ctx, addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to device")
	}

	char, err := awaitResult(ctx, func() (*Characteristic, error) {
		return findCharacteristic(conn, n.service, n.characteristic)
	})

	if err != nil {
		n.h.Release(conn)
		return nil, err
	}

	// prefer notifications, fall back to indications for peripherals that only offer those.
	indicate := char.Property&ble.CharNotify == 0

	err = await(ctx, func() error {
		return conn.Subscribe(char, indicate, func(data []byte) {
			notificationsCounter.Inc()

			// the stack reuses its buffer once the handler returns.
			payload := make([]byte, len(data))
			copy(payload, data)

			log.Trace().
				Stringer("Device", id).
				Hex("Payload", payload).
				Msg("ble: received notification")

			onNotification(payload)
		})
	})

	if err != nil {
		n.h.Release(conn)
		return nil, errors.Wrapf(err, "failed to subscribe to characteristic %v", n.characteristic)
	}

	log.Debug().
		Stringer("Device", id).
		Stringer("Service", n.service).
		Stringer("Characteristic", n.characteristic).
		Msg("ble: subscribed to characteristic notifications")

	return &Subscription{
		h:        n.h,
		conn:     conn,
		char:     char,
		indicate: indicate,
		device:   id,
	}, nil
}

func (s *Subscription) Unsubscribe(ctx context.Context) error {
	err := await(ctx, func() error {
		return s.conn.Unsubscribe(s.char, s.indicate)
	})

	if err != nil {
		return errors.Wrapf(err, "failed to unsubscribe from characteristic %v", s.char.UUID)
	}

	log.Debug().Stringer("Device", s.device).Msg("ble: unsubscribed from characteristic notifications")

	if err := s.h.Release(s.conn); err != nil {
		log.Warn().Err(err).Stringer("Device", s.device).Msg("ble: failed to close connection")
	}

	return nil
}

// findCharacteristic discovers only what is needed to subscribe: the service, the
// characteristic and the characteristic's descriptors (which hold the CCCD).
func findCharacteristic(conn Client, serviceUUID, charUUID UUID) (*Characteristic, error) {
	services, err := conn.DiscoverServices([]UUID{serviceUUID})
	if err != nil {
		return nil, errors.Wrap(err, "cannot discover services")
	}

	for _, svc := range services {
		if !uuidEqual(svc.UUID, serviceUUID) {
			continue
		}

		chars, err := conn.DiscoverCharacteristics([]UUID{charUUID}, svc)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot discover characteristics of service %v", serviceUUID)
		}

		for _, char := range chars {
			if !uuidEqual(char.UUID, charUUID) {
				continue
			}

			if char.Property&(ble.CharNotify|ble.CharIndicate) == 0 {
				return nil, errors.Wrapf(ErrNotifyNotSupported, "characteristic %v", charUUID)
			}

			if _, err := conn.DiscoverDescriptors(nil, char); err != nil {
				return nil, errors.Wrapf(err, "cannot discover descriptors of characteristic %v", charUUID)
			}

			return char, nil
		}

		return nil, errors.Wrapf(ErrCharacteristicNotFound, "%v in service %v", charUUID, serviceUUID)
	}

	return nil, errors.Wrapf(ErrServiceNotFound, "%v", serviceUUID)
}

// await runs a blocking BLE call, returning early if ctx is done. The call itself keeps running
// in the background: the stack offers no way to cancel it.
func await(ctx context.Context, fn func() error) error {
	_, err := awaitResult(ctx, func() (struct{}, error) {
		return struct{}{}, fn()
	})

	return err
}

func awaitResult[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}

	ch := make(chan result, 1)

	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-ch:
		return r.v, r.err
	}
}
