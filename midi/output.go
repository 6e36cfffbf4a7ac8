package midi

import (
	"fmt"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // register MIDI driver

	"airgrid/debug"
)

// Virtual/system ports that are never auto-selected.
var excludedPortPatterns = []string{"Midi Through", "Through Port", "Dummy"}

// Output is a Sender backed by a real MIDI output port. It owns the port:
// open at startup, Close on every exit path.
type Output struct {
	name string
	port drivers.Out
	send func(msg gomidi.Message) error
}

// OpenOutput opens the output port whose name contains name
// (case-insensitive). With an empty name it picks the first
// non-excluded port.
func OpenOutput(name string) (*Output, error) {
	port, err := findOutPort(name)
	if err != nil {
		return nil, err
	}
	send, err := gomidi.SendTo(port)
	if err != nil {
		return nil, fmt.Errorf("open output %q: %w", port.String(), err)
	}
	debug.Log("midi", "output connected: %s", port.String())
	return &Output{name: port.String(), port: port, send: send}, nil
}

// Name returns the connected port's name.
func (o *Output) Name() string {
	return o.name
}

// Send writes one raw message to the port.
func (o *Output) Send(msg []byte) error {
	return o.send(gomidi.Message(msg))
}

// Close closes the port and the driver.
func (o *Output) Close() error {
	err := o.port.Close()
	gomidi.CloseDriver()
	return err
}

// ListOutputs returns the names of all available output ports. Port
// enumeration runs with a timeout because CoreMIDI can hang.
func ListOutputs() ([]string, error) {
	outs, err := outPorts()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(outs))
	for _, p := range outs {
		names = append(names, p.String())
	}
	return names, nil
}

func findOutPort(name string) (drivers.Out, error) {
	outs, err := outPorts()
	if err != nil {
		return nil, err
	}
	for _, p := range outs {
		if excludedPort(p.String()) {
			continue
		}
		if name == "" || strings.Contains(strings.ToLower(p.String()), strings.ToLower(name)) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no MIDI output port matching %q", name)
}

func outPorts() ([]drivers.Out, error) {
	ch := make(chan []drivers.Out, 1)
	go func() {
		ch <- gomidi.GetOutPorts()
	}()
	select {
	case outs := <-ch:
		return outs, nil
	case <-time.After(3 * time.Second):
		return nil, fmt.Errorf("MIDI port scan timed out")
	}
}

func excludedPort(name string) bool {
	for _, pat := range excludedPortPatterns {
		if strings.Contains(strings.ToLower(name), strings.ToLower(pat)) {
			return true
		}
	}
	return false
}
