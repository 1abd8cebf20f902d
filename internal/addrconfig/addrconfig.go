/*
Package addrconfig inspects the host's non-loopback network interfaces to support the ADDRCONFIG
hint: restrict the families returned by lookup to those the machine could plausibly route.
*/
package addrconfig

import "net"

// Families reports whether the host has at least one non-loopback IPv4 and/or IPv6 address
// configured on any interface; the interface's up/down state is not checked.
func Families() (hasV4, hasV6 bool, err error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return false, false, err
	}
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ipNet.IP.To4() != nil {
			hasV4 = true
		} else {
			hasV6 = true
		}
	}
	return hasV4, hasV6, nil
}

// Family returns the family hint ADDRCONFIG resolves to: 0 if both (or neither) address family is
// present, 4 if only IPv4 is configured, 6 if only IPv6 is configured.
func Family() (int, error) {
	hasV4, hasV6, err := Families()
	if err != nil {
		return 0, err
	}
	switch {
	case hasV4 && !hasV6:
		return 4, nil
	case hasV6 && !hasV4:
		return 6, nil
	default:
		return 0, nil
	}
}
