package driver

import (
	"fmt"

	"kiln/internal/sema"
)

// EnableDynamicLookup switches permissive name resolution. Enabling twice
// returns sema.ErrResolverInstalled; disabling when off does nothing.
func (d *Driver) EnableDynamicLookup(on bool) error {
	if err := d.enter(); err != nil {
		return err
	}
	defer d.leave()
	return d.setDynamicLookup(on, false)
}

func (d *Driver) setDynamicLookup(on, idempotent bool) error {
	switch {
	case !on:
		d.dyn.Disable()
	case d.dyn.Enabled() && !idempotent:
		return sema.ErrResolverInstalled
	case !d.dyn.Enabled():
		if err := d.dyn.Enable(); err != nil {
			return err
		}
	}
	d.state.DynamicLookup = d.dyn.Enabled()
	d.armRewriter()
	return nil
}

// pragma handles `#pragma kiln <key> <value>` while a call parses. The
// flag applies to the groups that follow the pragma.
func (d *Driver) pragma(key, value string) error {
	switch key {
	case "dynamic_lookup":
		switch value {
		case "on":
			return d.setDynamicLookup(true, true)
		case "off":
			return d.setDynamicLookup(false, true)
		}
		return fmt.Errorf("dynamic_lookup expects on or off, got %q", value)
	default:
		return fmt.Errorf("unknown pragma key %q", key)
	}
}
