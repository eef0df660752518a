package apis

import (
	"github.com/godbus/dbus/v5"
)

const (
	ObjectName   = "org.freedesktop.Notifications"
	ObjectPath   = "/org/freedesktop/Notifications"
	CallBaseName = "org.freedesktop.Notifications"
)

// Caller is the part of dbus.BusObject the notification calls use.
type Caller interface {
	Call(method string, flags dbus.Flags, args ...any) *dbus.Call
}

// SessionObject returns the notification daemon on the session bus.
func SessionObject() (Caller, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, err
	}
	return conn.Object(ObjectName, ObjectPath), nil
}

// Call invokes member on the notifications interface of obj.
func Call(obj Caller, member string, args ...any) (*dbus.Call, error) {
	call := obj.Call(CallBaseName+"."+member, 0, args...)
	return call, call.Err
}
