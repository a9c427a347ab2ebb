package midi

import (
	"errors"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

// ScanTimeout bounds a port scan (CoreMIDI can hang)
const ScanTimeout = 3 * time.Second

// ErrScanTimeout is returned when the driver does not answer in time.
// User needs to run: sudo killall coreaudiod midiserver
var ErrScanTimeout = errors.New("midi port scan timed out")

// Ports lists the port names seen by the driver.
type Ports struct {
	In  []string
	Out []string
}

type scanResult struct {
	in  []drivers.In
	out []drivers.Out
}

func scan(timeout time.Duration) (scanResult, error) {
	ch := make(chan scanResult, 1)
	go func() {
		ch <- scanResult{in: gomidi.GetInPorts(), out: gomidi.GetOutPorts()}
	}()

	select {
	case r := <-ch:
		return r, nil
	case <-time.After(timeout):
		return scanResult{}, ErrScanTimeout
	}
}

// ListPorts returns all MIDI port names.
func ListPorts() (Ports, error) {
	r, err := scan(ScanTimeout)
	if err != nil {
		return Ports{}, err
	}
	var p Ports
	for _, in := range r.in {
		p.In = append(p.In, in.String())
	}
	for _, out := range r.out {
		p.Out = append(p.Out, out.String())
	}
	return p, nil
}

// matchPort picks the output port named name.
func matchPort(outs []drivers.Out, name string) drivers.Out {
	names := make([]string, len(outs))
	for i, o := range outs {
		names[i] = o.String()
	}
	if i := matchName(names, name); i >= 0 {
		return outs[i]
	}
	return nil
}

// matchName returns the index of an exact (case-insensitive) match, else
// the first name containing name, else -1.
func matchName(names []string, name string) int {
	want := strings.ToLower(name)
	for i, n := range names {
		if strings.ToLower(n) == want {
			return i
		}
	}
	for i, n := range names {
		if strings.Contains(strings.ToLower(n), want) {
			return i
		}
	}
	return -1
}
