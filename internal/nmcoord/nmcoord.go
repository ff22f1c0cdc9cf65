// Package nmcoord coordinates monitor-interface creation with
// NetworkManager: NM will otherwise notice a new wireless device, attempt
// to manage it, and fight the capture process for control of its mode and
// link state. Disown marks the device unmanaged for the duration of the
// capture; Reown gives it back on teardown.
package nmcoord

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	nmBusName    = "org.freedesktop.NetworkManager"
	nmObjectPath = "/org/freedesktop/NetworkManager"
	nmDeviceIface = "org.freedesktop.NetworkManager.Device"
	propsIface    = "org.freedesktop.DBus.Properties"
)

// Coordinator talks to a running NetworkManager instance over the system
// bus. A Coordinator with a nil conn is a no-op stand-in for systems
// without NetworkManager (or without permission to reach the system bus),
// matching the original capture's "best effort, never fatal" treatment of
// this step.
type Coordinator struct {
	conn *dbus.Conn
}

// Dial connects to the system bus. If NetworkManager (or D-Bus itself)
// isn't reachable, it returns a Coordinator that no-ops every call rather
// than an error, since device bring-up must not hard-fail just because
// NetworkManager coordination isn't available.
func Dial() *Coordinator {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return &Coordinator{}
	}
	return &Coordinator{conn: conn}
}

// Close releases the underlying bus connection, if any.
func (c *Coordinator) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Coordinator) devicePath(iface string) (dbus.ObjectPath, error) {
	nm := c.conn.Object(nmBusName, dbus.ObjectPath(nmObjectPath))
	var path dbus.ObjectPath
	err := nm.Call(nmBusName+".GetDeviceByIpIface", 0, iface).Store(&path)
	if err != nil {
		return "", fmt.Errorf("look up NetworkManager device for %s: %w", iface, err)
	}
	return path, nil
}

func (c *Coordinator) setManaged(iface string, managed bool) error {
	if c.conn == nil {
		return nil
	}
	path, err := c.devicePath(iface)
	if err != nil {
		return err
	}
	dev := c.conn.Object(nmBusName, path)
	call := dev.Call(propsIface+".Set", 0, nmDeviceIface, "Managed", dbus.MakeVariant(managed))
	if call.Err != nil {
		return fmt.Errorf("set Managed=%v on %s: %w", managed, iface, call.Err)
	}
	return nil
}

// IsManaged reports whether NetworkManager currently manages iface. A nil
// connection (NetworkManager unreachable) reports false with no error,
// matching this package's best-effort treatment of the whole step.
func (c *Coordinator) IsManaged(iface string) (bool, error) {
	if c.conn == nil {
		return false, nil
	}
	path, err := c.devicePath(iface)
	if err != nil {
		return false, err
	}
	dev := c.conn.Object(nmBusName, path)
	variant, err := dev.GetProperty(nmDeviceIface + ".Managed")
	if err != nil {
		return false, fmt.Errorf("read Managed property of %s: %w", iface, err)
	}
	managed, ok := variant.Value().(bool)
	if !ok {
		return false, fmt.Errorf("unexpected type for Managed property of %s", iface)
	}
	return managed, nil
}

// Disown asks NetworkManager to stop managing iface. Errors here (NM not
// running, device not known to NM, permission denied) are reported but are
// never treated as fatal to capture bring-up by callers.
func (c *Coordinator) Disown(iface string) error {
	return c.setManaged(iface, false)
}

// Reown hands iface back to NetworkManager, normally during interface
// teardown.
func (c *Coordinator) Reown(iface string) error {
	return c.setManaged(iface, true)
}
