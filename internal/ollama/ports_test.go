package ollama

import (
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/iksnae/agentroom/internal"
)

func TestFindFreePort(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer l.Close()
	busy := l.Addr().(*net.TCPAddr).Port

	_, err = FindFreePort(busy, busy)
	if !errors.Is(err, internal.ErrNoPortAvailable) {
		t.Fatalf("FindFreePort() on a bound port error = %v, want ErrNoPortAvailable", err)
	}
	var pe *internal.PortError
	if !errors.As(err, &pe) || err.Error() != fmt.Sprintf("no available ports found in the range %d-%d", busy, busy) {
		t.Errorf("FindFreePort() error = %v", err)
	}
}

func TestFindFreePort_SkipsBusy(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	busy := l.Addr().(*net.TCPAddr).Port
	defer l.Close()
	if busy == 65535 {
		t.Skip("no room above the bound port")
	}

	port, err := FindFreePort(busy, busy+1)
	if err != nil {
		t.Skipf("port %d also in use: %v", busy+1, err)
	}
	if port != busy+1 {
		t.Errorf("FindFreePort() = %d, want %d", port, busy+1)
	}
}

func TestPortRange_Set(t *testing.T) {
	tests := []struct {
		in      string
		want    PortRange
		wantErr bool
	}{
		{in: "4200-4300", want: PortRange{Start: 4200, End: 4300}},
		{in: "5000", want: PortRange{Start: 5000, End: 5000}},
		{in: " 10 - 20 ", want: PortRange{Start: 10, End: 20}},
		{in: "4300-4200", wantErr: true},
		{in: "0-10", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "1-70000", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var r PortRange
			err := r.Set(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Set(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && r != tt.want {
				t.Errorf("Set(%q) = %+v, want %+v", tt.in, r, tt.want)
			}
		})
	}

	r := PortRange{Start: 1, End: 2}
	if r.String() != "1-2" || r.Type() != "range" {
		t.Errorf("String() = %q, Type() = %q", r.String(), r.Type())
	}
}
