package singleinstance

import (
	"net"
	"os"
	"strconv"
)

const (
	defaultPortStart = 49600
	defaultPortEnd   = 49620

	portStartEnv = "SINGLEINSTANCE_PORT_START"
	portEndEnv   = "SINGLEINSTANCE_PORT_END"
)

// PortRange is the inclusive loopback range searched for a resident. The
// resident itself only ever binds Start, so two residents cannot coexist.
type PortRange struct {
	Start, End int
}

// PortRangeFromEnv reads SINGLEINSTANCE_PORT_START/END, keeping the default for
// unset or invalid values, clamping to [1024, 65535] and ordering the bounds.
func PortRangeFromEnv() PortRange {
	r := PortRange{Start: envPort(portStartEnv, defaultPortStart), End: envPort(portEndEnv, defaultPortEnd)}
	r.Start = max(r.Start, 1024)
	r.End = min(r.End, 65535)
	if r.End < r.Start {
		r.Start, r.End = r.End, r.Start
	}
	return r
}

func envPort(key string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return def
}

// ListenAddr is where a resident binds.
func (r PortRange) ListenAddr() string { return addrFor(r.Start) }

// candidates lists every address a resident may answer on, bind port first.
func (r PortRange) candidates() []string {
	addrs := make([]string, 0, r.End-r.Start+1)
	for p := r.Start; p <= r.End; p++ {
		addrs = append(addrs, addrFor(p))
	}
	return addrs
}

func addrFor(port int) string { return net.JoinHostPort(residentHost, strconv.Itoa(port)) }
