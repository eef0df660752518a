// Package convert wraps Go values as the D-Bus variants notification hints
// carry.
package convert

import "github.com/godbus/dbus/v5"

// FromBool is a "b" variant.
func FromBool(v bool) dbus.Variant { return dbus.MakeVariant(v) }

// FromString is an "s" variant.
func FromString(v string) dbus.Variant { return dbus.MakeVariant(v) }

// FromByte is a "y" variant, used for the urgency hint.
func FromByte(v byte) dbus.Variant { return dbus.MakeVariant(v) }
