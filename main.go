package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"airgrid/config"
	"airgrid/debug"
	"airgrid/events"
	"airgrid/expression"
	"airgrid/layout"
	"airgrid/midi"
	"airgrid/tracking"
	"airgrid/tui"
	"airgrid/zones"
)

func main() {
	configPath := flag.String("config", "", "config file path (default ~/.config/airgrid/config.json)")
	preset := flag.String("preset", "", "layout preset to apply on top of the config")
	port := flag.String("port", "", "MIDI output port name override")
	listen := flag.String("listen", "", "tracker listen address override (e.g. :9400)")
	headless := flag.Bool("headless", false, "run without the terminal monitor")
	debugLog := flag.Bool("debug", false, "write a debug log to ~/.config/airgrid/debug.log")
	listPorts := flag.Bool("list-ports", false, "list MIDI output ports and exit")
	flag.Parse()

	if *listPorts {
		names, err := midi.ListOutputs()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return
	}

	if err := run(*configPath, *preset, *port, *listen, *headless, *debugLog); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, preset, port, listen string, headless, debugLog bool) error {
	if debugLog {
		if err := debug.Enable(debug.DefaultPath()); err != nil {
			return fmt.Errorf("enable debug log: %w", err)
		}
		defer debug.Disable()
	}

	path := configPath
	if path == "" {
		var err error
		if path, err = config.Path(); err != nil {
			return err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if preset != "" {
		if err := cfg.ApplyPreset(preset); err != nil {
			return err
		}
	}
	if port != "" {
		cfg.MIDI.PortName = port
	}
	if listen != "" {
		cfg.Tracking.ListenAddr = listen
	}

	grid, err := layout.NewGrid(cfg.Layout.Rows, cfg.Layout.Columns, cfg.Layout.Margin)
	if err != nil {
		return err
	}
	mode, err := zones.ParseMode(cfg.Layout.ActivationMode)
	if err != nil {
		return err
	}
	mapper := zones.NewMapper(grid, cfg.Layout.BaseNote, cfg.Layout.NoteInterval)
	engine := expression.NewEngine(cfg.ExpressionConfig())

	// Validate the smoother settings once; the source builds one per hand.
	if _, err := tracking.NewSmoother(cfg.Tracking.Smoother, cfg.Tracking.SmoothingAlpha); err != nil {
		return err
	}
	newSmoother := func() tracking.Smoother {
		s, _ := tracking.NewSmoother(cfg.Tracking.Smoother, cfg.Tracking.SmoothingAlpha)
		return s
	}

	output, err := midi.OpenOutput(cfg.MIDI.PortName)
	if err != nil {
		return err
	}
	defer output.Close()

	controller := midi.NewController(output, cfg.ControllerConfig())
	manager := events.NewManager(mapper, engine, controller, events.Config{
		Mode:         mode,
		ReleaseDelay: cfg.ReleaseDelay(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := tracking.NewUDPSource(cfg.Tracking.ListenAddr, newSmoother)
	sourceErr := make(chan error, 1)
	go func() {
		sourceErr <- source.Run(ctx)
	}()

	// Single consumer: Process is not goroutine safe. ReleaseAll runs here
	// too so every note-off comes from the same goroutine, followed by the
	// controller flush so silence is guaranteed even mid-note.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for frame := range source.Frames() {
			manager.Process(frame)
		}
		manager.ReleaseAll()
		controller.ReleaseAll()
	}()

	if headless {
		fmt.Printf("airgrid: %s -> %s\n", cfg.Tracking.ListenAddr, output.Name())
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		select {
		case <-sig:
		case <-done:
		}
		cancel()
		<-done
		return <-sourceErr
	}

	rows, columns := grid.Dims()
	model := tui.NewModel(manager, rows, columns, output.Name(), cancel)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return err
	}
	cancel()
	<-done
	return <-sourceErr
}
