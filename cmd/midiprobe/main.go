// midiprobe is a small diagnostic tool for MIDI output ports: list what
// is available, send a test note, or flush a synth stuck with hanging
// notes.
package main

import (
	"fmt"
	"os"
	"time"

	"airgrid/expression"
	"airgrid/midi"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "note":
		testNote(portArg())
	case "panic":
		panicFlush(portArg())
	default:
		usage()
	}
}

func portArg() string {
	if len(os.Args) > 2 {
		return os.Args[2]
	}
	return ""
}

func usage() {
	fmt.Println("midiprobe - MIDI output diagnostics")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list          - list MIDI output ports")
	fmt.Println("  note [port]   - play a short test note")
	fmt.Println("  panic [port]  - release everything and send all-notes-off")
}

func listPorts() {
	names, err := midi.ListOutputs()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if len(names) == 0 {
		fmt.Println("No MIDI output ports found")
		return
	}
	for i, name := range names {
		fmt.Printf("  %d: %s\n", i, name)
	}
}

func testNote(port string) {
	out, err := midi.OpenOutput(port)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	fmt.Printf("Using output: %s\n", out.Name())

	c := midi.NewController(out, midi.DefaultControllerConfig())
	ch, ok := c.TriggerNote(60, 100, expression.Neutral())
	if !ok {
		fmt.Println("No channel available")
		return
	}
	fmt.Printf("Note 60 on channel %d, holding 500ms...\n", ch)
	time.Sleep(500 * time.Millisecond)
	c.ReleaseNote(ch)
	fmt.Println("Done")
}

func panicFlush(port string) {
	out, err := midi.OpenOutput(port)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	fmt.Printf("Flushing %s...\n", out.Name())
	c := midi.NewController(out, midi.DefaultControllerConfig())
	c.ReleaseAll()
	fmt.Println("All notes off sent on every channel")
}
