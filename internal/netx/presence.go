// Package netx holds network helpers: device network presence detection and
// uploads to presigned object-store URLs.
package netx

import (
	"context"
	"net"
	"time"
)

// InterfaceLister returns the host's network interfaces and their addresses.
type InterfaceLister func() ([]Interface, error)

// Interface is the part of net.Interface presence detection looks at.
type Interface struct {
	Name     string
	Up       bool
	Loopback bool
	Addrs    int
}

// SystemInterfaces lists the interfaces of the running host.
func SystemInterfaces() ([]Interface, error) {
	ifs, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	out := make([]Interface, 0, len(ifs))
	for _, ifc := range ifs {
		addrs, err := ifc.Addrs()
		if err != nil {
			continue
		}
		out = append(out, Interface{
			Name:     ifc.Name,
			Up:       ifc.Flags&net.FlagUp != 0,
			Loopback: ifc.Flags&net.FlagLoopback != 0,
			Addrs:    len(addrs),
		})
	}
	return out, nil
}

// Online reports whether at least one non-loopback interface is up and has
// an address. A listing error counts as offline.
func Online(list InterfaceLister) bool {
	ifs, err := list()
	if err != nil {
		return false
	}
	for _, ifc := range ifs {
		if ifc.Up && !ifc.Loopback && ifc.Addrs > 0 {
			return true
		}
	}
	return false
}

// Watch polls presence every interval and calls onChange with the initial
// state and after every change. It returns when ctx is done.
func Watch(ctx context.Context, list InterfaceLister, interval time.Duration, onChange func(online bool)) {
	last := Online(list)
	onChange(last)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if now := Online(list); now != last {
				last = now
				onChange(now)
			}
		case <-ctx.Done():
			return
		}
	}
}
