//go:build !linux

package screencopy

import "errors"

func dialWayland(string) (transport, error) {
	return nil, errors.New("wayland screencopy requires linux")
}
