// Package ollama manages the inference server process this tool owns and
// wraps the server's model administration commands.
package ollama

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/iksnae/agentroom/internal"
)

// Default port range searched for a free server port
const (
	DefaultPortStart = 4200
	DefaultPortEnd   = 4300
)

// FindFreePort returns the first port in [start, end] that can be bound on
// the loopback interface
func FindFreePort(start, end int) (int, error) {
	for port := start; port <= end; port++ {
		l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err != nil {
			continue
		}
		_ = l.Close()
		internal.LogDebug("Found free port %d", port)
		return port, nil
	}
	return 0, &internal.PortError{Start: start, End: end}
}

// PortRange is an inclusive port range usable as a command-line flag ("4200-4300")
type PortRange struct {
	Start int
	End   int
}

// String implements pflag.Value
func (r *PortRange) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// Set implements pflag.Value. A single port is a range of one.
func (r *PortRange) Set(s string) error {
	lo, hi, found := strings.Cut(s, "-")
	start, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return fmt.Errorf("invalid port range %q", s)
	}
	end := start
	if found {
		if end, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil {
			return fmt.Errorf("invalid port range %q", s)
		}
	}
	if start < 1 || end > 65535 || start > end {
		return fmt.Errorf("invalid port range %q", s)
	}
	r.Start, r.End = start, end
	return nil
}

// Type implements pflag.Value
func (r *PortRange) Type() string {
	return "range"
}
