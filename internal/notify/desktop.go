package notify

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsService = "org.freedesktop.Notifications"
	notificationsPath    = "/org/freedesktop/Notifications"
	notifyMethod         = notificationsService + ".Notify"
)

// Desktop shows notifications through the freedesktop notification
// service on the session bus.
type Desktop struct {
	appName string
	conn    *dbus.Conn
	obj     dbus.BusObject
}

// NewDesktop connects to the session bus.
func NewDesktop(appName string) (*Desktop, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Desktop{
		appName: appName,
		conn:    conn,
		obj:     conn.Object(notificationsService, dbus.ObjectPath(notificationsPath)),
	}, nil
}

func (d *Desktop) Notify(ctx context.Context, n Notification) error {
	call := d.obj.CallWithContext(ctx, notifyMethod, 0,
		d.appName,
		uint32(0),
		n.Icon,
		n.Summary,
		n.Body,
		[]string{},
		map[string]dbus.Variant{},
		int32(n.Timeout.Milliseconds()),
	)
	if call.Err != nil {
		return fmt.Errorf("desktop notification failed: %w", call.Err)
	}
	return nil
}

// Close closes the bus connection.
func (d *Desktop) Close() error {
	if d.conn == nil {
		return nil
	}
	return d.conn.Close()
}
