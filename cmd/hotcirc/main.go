// Command hotcirc infers hot-water demand from outlet temperature transients,
// learns a weekly usage profile, and drives the circulation pump accordingly.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/hotcirc/internal/clock"
	"github.com/sweeney/hotcirc/internal/gpio"
	"github.com/sweeney/hotcirc/internal/logic"
	"github.com/sweeney/hotcirc/internal/mqtt"
	"github.com/sweeney/hotcirc/internal/onewire"
	"github.com/sweeney/hotcirc/internal/status"
	"github.com/sweeney/hotcirc/internal/store"
	"github.com/sweeney/hotcirc/internal/web"
)

func main() {
	tick := flag.Duration("tick", 100*time.Millisecond, "Control loop tick interval")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	httpAddr := flag.String("http", ":80", "HTTP status address (empty to disable)")
	stateFile := flag.String("state", "/var/lib/hotcirc/matrix.bin", "Learning matrix state file")
	tz := flag.String("tz", "", "Time zone for calendar logic (empty = system local)")

	outletID := flag.String("outlet-sensor", "", "w1 device ID of the outlet probe (required)")
	returnID := flag.String("return-sensor", "", "w1 device ID of the return probe (required)")
	pinPump := flag.Int("pin-pump", gpio.DefaultPinPump, "BCM pin number for the pump relay")
	pinRunLED := flag.Int("pin-run-led", gpio.DefaultPinRunLED, "BCM pin number for the run LED")
	pinStatusLED := flag.Int("pin-status-led", gpio.DefaultPinStatusLED, "BCM pin number for the status LED")
	pinButton := flag.Int("pin-button", gpio.DefaultPinButton, "BCM pin number for the button")

	outletRise := flag.Float64("outlet-rise", 1.5, "Outlet rise (°C) confirming a water draw")
	returnRise := flag.Float64("return-rise", 5.0, "Target return rise (°C) above start baseline")
	disinfectionRise := flag.Float64("disinfection-rise", 10.0, "Outlet elevation (°C) indicating disinfection")
	minReturnTemp := flag.Float64("min-return-temp", 30.0, "Skip starts when return is already this warm (°C)")
	flowRate := flag.Float64("flow-rate", 20.0, "Pump flow rate (L/min) for energy integration")
	ecoThreshold := flag.Int("eco-threshold", 120, "Matrix intensity triggering a scheduled pre-heat (0-255)")
	antiStagRuntime := flag.Duration("anti-stag-runtime", 15*time.Second, "Anti-stagnation run length")

	printTemps := flag.Bool("print-temps", false, "Read both probes once, print, and exit")

	flag.Parse()

	cfg := logic.DefaultConfig()
	cfg.OutletRise = *outletRise
	cfg.ReturnRise = *returnRise
	cfg.DisinfectionRise = *disinfectionRise
	cfg.MinReturnTemp = *minReturnTemp
	cfg.FlowRate = *flowRate
	cfg.EcoThreshold = uint8(*ecoThreshold)
	cfg.AntiStagnationRuntime = *antiStagRuntime

	if err := run(cfg, *tick, *broker, *heartbeat, *httpAddr, *stateFile, *tz,
		*outletID, *returnID, *pinPump, *pinRunLED, *pinStatusLED, *pinButton, *printTemps); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg logic.Config, tick time.Duration, broker string, heartbeat time.Duration,
	httpAddr, stateFile, tz, outletID, returnID string,
	pinPump, pinRunLED, pinStatusLED, pinButton int, printTemps bool) error {

	if outletID == "" || returnID == "" {
		return fmt.Errorf("both -outlet-sensor and -return-sensor are required")
	}

	outletSensor := onewire.NewDS18B20(outletID)
	returnSensor := onewire.NewDS18B20(returnID)

	if printTemps {
		out, err := outletSensor.Read()
		if err != nil {
			return fmt.Errorf("read outlet: %w", err)
		}
		ret, err := returnSensor.Read()
		if err != nil {
			return fmt.Errorf("read return: %w", err)
		}
		fmt.Printf("outlet: %.3f°C, return: %.3f°C\n", out, ret)
		return nil
	}

	loc := time.Local
	if tz != "" {
		var err error
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return fmt.Errorf("load time zone: %w", err)
		}
	}
	clk := clock.NewSystem(loc)

	// Initialize GPIO. A failure leaves the controller running headless:
	// starts become no-ops but telemetry and learning continue.
	var io gpio.IO
	realIO, err := gpio.NewRealIO(pinPump, pinRunLED, pinStatusLED, pinButton)
	if err != nil {
		log.Printf("gpio unavailable, running without actuator: %v", err)
	} else {
		io = realIO
		defer realIO.Close()
	}

	// Initialize MQTT
	publisher, err := mqtt.NewRealPublisher(broker)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Load the learning matrix; any failure reseeds with the default pattern.
	st := store.NewFileStore(stateFile)
	matrix, err := st.Load()
	if err != nil {
		log.Printf("matrix load failed (%v), seeding default pattern", err)
		matrix = logic.SeedMatrix()
	} else {
		log.Printf("learning matrix loaded from %s (checksum 0x%08X)", stateFile, matrix.Checksum())
	}

	startTime := time.Now()
	ctrl := logic.NewController(cfg, matrix, startTime)

	tracker := status.NewTracker(startTime, status.Config{
		TickMs:        tick.Milliseconds(),
		HeartbeatMs:   heartbeat.Milliseconds(),
		Broker:        broker,
		HTTPAddr:      httpAddr,
		StateFile:     stateFile,
		OutletRise:    cfg.OutletRise,
		ReturnRise:    cfg.ReturnRise,
		MinReturnTemp: cfg.MinReturnTemp,
		EcoThreshold:  cfg.EcoThreshold,
	})

	// Commands from the web UI are queued and consumed by the control loop;
	// the HTTP handlers never touch controller state directly.
	commands := make(chan logic.Command, 8)
	sink := func(cmd logic.Command) bool {
		select {
		case commands <- cmd:
			return true
		default:
			return false
		}
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if httpAddr != "" {
		srv := web.New(httpAddr, tracker, sink)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", httpAddr)
	}

	log.Printf("started: tick=%v broker=%s heartbeat=%v state=%s", tick, broker, heartbeat, stateFile)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(ctrl, outletSensor, returnSensor, clk, io, publisher, publisher, st, tracker,
		heartbeat, time.Now, ticker.C, commands, sigCh)
}

// runLoop is the single control context: every controller mutation happens
// here, either on a tick or on a dequeued command.
func runLoop(ctrl *logic.Controller, outletSensor, returnSensor onewire.Sensor, clk clock.Source,
	io gpio.IO, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, st store.Store,
	tracker *status.Tracker, heartbeat time.Duration, now func() time.Time,
	tick <-chan time.Time, commands <-chan logic.Command, sig <-chan os.Signal) error {

	var lastOut logic.Output
	haveOut := false
	var lastMatrixLog time.Time

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			// Never leave the pump energized across a shutdown.
			if io != nil {
				if err := io.SetPump(false); err != nil {
					log.Printf("shutdown: pump off failed: %v", err)
				}
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case cmd := <-commands:
			t := now()
			in := readInput(outletSensor, returnSensor, clk, io, t)
			log.Printf("command: %s", cmd)
			events := ctrl.Apply(cmd, in)
			handleEvents(events, publisher, st, ctrl, t)
			if tracker != nil {
				tracker.Update(ctrl, in.Outlet, in.Return)
			}

		case <-tick:
			t := now()
			in := readInput(outletSensor, returnSensor, clk, io, t)

			out, events := ctrl.Tick(in)
			applyOutputs(io, out, &lastOut, &haveOut)
			handleEvents(events, publisher, st, ctrl, t)

			if out.FlashStatusLED && io != nil {
				flashStatusLED(io)
			}

			// Check for heartbeat
			if hb := ctrl.CheckHeartbeat(t, heartbeat); hb != nil {
				log.Printf("heartbeat: uptime=%v draws=%d starts=%d stops=%d rejected=%d",
					hb.Uptime, hb.Counts.DrawsConfirmed, hb.Counts.PumpStarts,
					hb.Counts.PumpStops, hb.Counts.StartsRejected)

				hbEvent := mqtt.SystemEvent{
					Timestamp: hb.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					if mqttStatus != nil {
						tracker.SetMQTTConnected(mqttStatus.IsConnected())
					}
					tracker.Update(ctrl, in.Outlet, in.Return)
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
				if err := publisher.PublishMatrix(t, ctrl.Matrix(), ctrl.EcoThreshold()); err != nil {
					log.Printf("matrix publish error: %v", err)
				}
			}

			// Update status tracker for HTTP consumers
			if tracker != nil {
				tracker.Update(ctrl, in.Outlet, in.Return)
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}

			if lastMatrixLog.IsZero() || t.Sub(lastMatrixLog) >= time.Minute {
				logMatrix(ctrl.Matrix())
				lastMatrixLog = t
			}
		}
	}
}

// readInput gathers one tick's worth of sensor/clock/button state.
// Sensor faults become NaN (the controller fails open on NaN).
func readInput(outletSensor, returnSensor onewire.Sensor, clk clock.Source, io gpio.IO, t time.Time) logic.Input {
	in := logic.Input{
		Outlet:        readTemp(outletSensor, "outlet"),
		Return:        readTemp(returnSensor, "return"),
		Clock:         clk.Now(),
		PumpAvailable: io != nil,
		Time:          t,
	}
	if io != nil {
		pressed, err := io.ReadButton()
		if err != nil {
			log.Printf("button read error: %v", err)
		} else {
			in.Button = pressed
		}
	}
	return in
}

func readTemp(s onewire.Sensor, name string) float64 {
	v, err := s.Read()
	if err != nil {
		log.Printf("%s sensor read error: %v", name, err)
		return math.NaN()
	}
	return v
}

// applyOutputs pushes changed actuator states to the hardware.
func applyOutputs(io gpio.IO, out logic.Output, last *logic.Output, have *bool) {
	if io == nil {
		return
	}
	if !*have || out.Pump != last.Pump {
		if err := io.SetPump(out.Pump); err != nil {
			log.Printf("set pump: %v", err)
		}
	}
	if !*have || out.RunLED != last.RunLED {
		if err := io.SetRunLED(out.RunLED); err != nil {
			log.Printf("set run LED: %v", err)
		}
	}
	if !*have || out.StatusLED != last.StatusLED {
		if err := io.SetStatusLED(out.StatusLED); err != nil {
			log.Printf("set status LED: %v", err)
		}
	}
	*last = out
	*have = true
}

// flashStatusLED is the matrix-reset feedback: six alternating blinks. This
// is the one place the control loop is allowed to stall, and it is short,
// bounded, and rare (a deliberate >10 s button hold).
func flashStatusLED(io gpio.IO) {
	for i := 0; i < 6; i++ {
		if err := io.SetStatusLED(i%2 == 0); err != nil {
			log.Printf("flash status LED: %v", err)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// handleEvents publishes controller events and persists the matrix when an
// event marks a persistence boundary (daily decay, explicit save, reset).
func handleEvents(events []logic.Event, publisher mqtt.Publisher, st store.Store, ctrl *logic.Controller, t time.Time) {
	for _, e := range events {
		logEvent(e)
		if err := publisher.Publish(e); err != nil {
			log.Printf("publish error: %v", err)
			// Don't crash on publish failure
		}

		switch e.Type {
		case logic.EventMatrixDecay, logic.EventMatrixReset, logic.EventMatrixSave:
			m := ctrl.Matrix()
			if err := st.Save(m); err != nil {
				log.Printf("matrix save failed (state stays stale until next save): %v", err)
			} else {
				log.Printf("learning matrix saved (checksum 0x%08X)", m.Checksum())
			}
			if err := publisher.PublishMatrix(t, m, ctrl.EcoThreshold()); err != nil {
				log.Printf("matrix publish error: %v", err)
			}
		}
	}
}

func logEvent(e logic.Event) {
	switch e.Type {
	case logic.EventPumpOn:
		log.Printf("event: %s (trigger %s)", e.Type, e.Trigger)
	case logic.EventPumpOff:
		log.Printf("event: %s (trigger %s, %s, %ds, %.4f kWh)", e.Type, e.Trigger, e.Reason, e.CycleSeconds, e.CycleKWh)
	case logic.EventStartRejected:
		log.Printf("event: %s (trigger %s: %s)", e.Type, e.Trigger, e.Reason)
	case logic.EventDrawConfirmed:
		if e.Day >= 0 {
			log.Printf("event: %s (learned d=%d slot=%d)", e.Type, e.Day, e.Slot)
		} else {
			log.Printf("event: %s (not learned)", e.Type)
		}
	default:
		log.Printf("event: %s", e.Type)
	}
}

var dayNames = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// logMatrix prints the grid, AM and PM halves per day, for field debugging.
func logMatrix(m logic.Matrix) {
	for d := 0; d < 7; d++ {
		am := ""
		for s := 0; s < 24; s++ {
			am += fmt.Sprintf(" %3d", m[d][s])
		}
		pm := ""
		for s := 24; s < 48; s++ {
			pm += fmt.Sprintf(" %3d", m[d][s])
		}
		log.Printf("matrix %s-AM:%s", dayNames[d], am)
		log.Printf("matrix %s-PM:%s", dayNames[d], pm)
	}
}
