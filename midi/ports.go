package midi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"drum-trigger/debug"
)

// ScanTimeout bounds a port scan. CoreMIDI can hang while enumerating;
// when it does, `sudo killall coreaudiod midiserver` usually recovers it.
const ScanTimeout = 3 * time.Second

var (
	ErrScanTimeout  = errors.New("midi: port scan timed out")
	ErrPortNotFound = errors.New("midi: output port not found")
)

// Ports is one snapshot of the system's MIDI ports
type Ports struct {
	In  []drivers.In
	Out []drivers.Out
}

// Scan lists the ports, giving up after ScanTimeout or when ctx ends
func Scan(ctx context.Context) (Ports, error) {
	ch := make(chan Ports, 1)
	go func() {
		ch <- Ports{In: gomidi.GetInPorts(), Out: gomidi.GetOutPorts()}
	}()

	select {
	case p := <-ch:
		debug.Log("midi", "scan", "in", len(p.In), "out", len(p.Out))
		return p, nil
	case <-time.After(ScanTimeout):
		return Ports{}, ErrScanTimeout
	case <-ctx.Done():
		return Ports{}, ctx.Err()
	}
}

// OutNames lists the output port names
func (p Ports) OutNames() []string {
	names := make([]string, len(p.Out))
	for i, o := range p.Out {
		names[i] = o.String()
	}
	return names
}

// InNames lists the input port names
func (p Ports) InNames() []string {
	names := make([]string, len(p.In))
	for i, in := range p.In {
		names[i] = in.String()
	}
	return names
}

// FindOut returns the first output whose name contains name, ignoring case.
// An exact match wins over a substring match.
func (p Ports) FindOut(name string) (drivers.Out, error) {
	want := strings.ToLower(name)
	var partial drivers.Out
	for _, o := range p.Out {
		got := strings.ToLower(o.String())
		if got == want {
			return o, nil
		}
		if partial == nil && strings.Contains(got, want) {
			partial = o
		}
	}
	if partial != nil {
		return partial, nil
	}
	return nil, fmt.Errorf("%w: %q (have %s)", ErrPortNotFound, name, strings.Join(p.OutNames(), ", "))
}

// OpenOut finds an output port by name and returns a send function for it.
// An empty name picks the first port. The returned close func releases the
// port.
func OpenOut(ctx context.Context, name string) (Sender, func() error, error) {
	ports, err := Scan(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(ports.Out) == 0 {
		return nil, nil, fmt.Errorf("%w: no outputs available", ErrPortNotFound)
	}

	out := ports.Out[0]
	if name != "" {
		if out, err = ports.FindOut(name); err != nil {
			return nil, nil, err
		}
	}

	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, nil, fmt.Errorf("midi: open %s: %w", out.String(), err)
	}
	debug.Log("midi", "opened output", "port", out.String())

	return Sender(send), out.Close, nil
}
