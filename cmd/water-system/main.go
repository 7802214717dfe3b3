// Command water-system runs the two-tank water simulation in real time,
// reporting to the console, MQTT, HTTP and an optional pump relay.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/water-system/internal/config"
	"github.com/sweeney/water-system/internal/gpio"
	"github.com/sweeney/water-system/internal/logic"
	"github.com/sweeney/water-system/internal/metrics"
	"github.com/sweeney/water-system/internal/mqtt"
	"github.com/sweeney/water-system/internal/plot"
	"github.com/sweeney/water-system/internal/status"
	"github.com/sweeney/water-system/internal/web"
)

type options struct {
	configPath  string
	tick        time.Duration
	duration    time.Duration
	print       time.Duration
	broker      string
	heartbeat   time.Duration
	httpAddr    string
	plotPath    string
	pinPump     int
	printConfig bool
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "Scenario YAML file (empty uses built-in defaults)")
	flag.DurationVar(&o.tick, "tick", 100*time.Millisecond, "Sampling period")
	flag.DurationVar(&o.duration, "duration", 300*time.Second, "Run length (0 runs until signalled)")
	flag.DurationVar(&o.print, "print", time.Second, "Console status interval (0 to disable)")
	flag.StringVar(&o.broker, "broker", "", "MQTT broker address (empty to disable)")
	flag.DurationVar(&o.heartbeat, "heartbeat", time.Minute, "Heartbeat interval (0 to disable)")
	flag.StringVar(&o.httpAddr, "http", ":8080", "HTTP status address (empty to disable)")
	flag.StringVar(&o.plotPath, "plot", "ts.png", "Level chart written on exit (empty to disable)")
	flag.IntVar(&o.pinPump, "pin-pump", gpio.NoPin, "BCM pin driving the pump relay (-1 to disable)")
	flag.BoolVar(&o.printConfig, "print-config", false, "Print the resolved scenario and exit")

	flag.Parse()

	if err := run(o); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(o options) error {
	if o.tick <= 0 {
		return fmt.Errorf("tick must be positive, got %v", o.tick)
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}

	if o.printConfig {
		data, err := cfg.Marshal()
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		fmt.Print(string(data))
		return nil
	}

	sys, err := cfg.Build(time.Now)
	if err != nil {
		return fmt.Errorf("build system: %w", err)
	}

	runID := uuid.NewString()
	out := outputs{
		metrics: metrics.New(),
		series:  plot.NewSeries(),
		console: os.Stdout,
	}

	out.tracker = status.NewTracker(time.Now(), runID, status.Config{
		TickMs:      o.tick.Milliseconds(),
		DurationMs:  o.duration.Milliseconds(),
		PrintMs:     o.print.Milliseconds(),
		HeartbeatMs: o.heartbeat.Milliseconds(),
		Broker:      o.broker,
		HTTPAddr:    o.httpAddr,
		PlotPath:    o.plotPath,
		Integration: string(sys.Integration()),
		PumpPin:     o.pinPump,
	})
	condA, condB := sys.Conditions()
	out.tracker.Update(sys.Reading(), sys.Counts(), condA, condB, 0)
	out.metrics.SetReading(sys.Reading())

	if o.pinPump != gpio.NoPin {
		relay, err := gpio.NewRealWriter(gpio.DefaultChip, o.pinPump)
		if err != nil {
			return fmt.Errorf("init pump relay: %w", err)
		}
		defer relay.Close()
		out.relay = relay
	}

	if o.broker != "" {
		publisher, err := mqtt.NewRealPublisher(o.broker, "water-system-"+runID)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer publisher.Close()
		out.publisher = publisher
		out.mqttStatus = publisher
		out.tracker.SetMQTTConnected(publisher.IsConnected())

		// Publish startup event with full status snapshot
		snap := out.tracker.Snapshot()
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
	}

	// Start HTTP status server
	if o.httpAddr != "" {
		srv := web.New(o.httpAddr, out.tracker, out.metrics.Handler())
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", o.httpAddr)
	}

	log.Printf("started: run=%s tick=%v duration=%v integration=%s broker=%q heartbeat=%v",
		runID, o.tick, o.duration, sys.Integration(), o.broker, o.heartbeat)

	ticker := time.NewTicker(o.tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	tm := timing{duration: o.duration, heartbeat: o.heartbeat, print: o.print}
	reason, loopErr := runLoop(sys, out, tm, time.Now, ticker.C, sigCh)
	log.Printf("stopped: reason=%s steps=%d", reason, sys.Counts().Steps)

	if o.plotPath != "" {
		if err := out.series.Save(o.plotPath); err != nil {
			log.Printf("failed to save plot: %v", err)
		} else {
			log.Printf("saved level chart to %s (%d samples)", o.plotPath, out.series.Len())
		}
	}

	return loopErr
}

// outputs are the sinks fed by the run loop. Nil fields are skipped.
type outputs struct {
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	relay      gpio.Writer
	tracker    *status.Tracker
	metrics    *metrics.Metrics
	series     *plot.Series
	console    io.Writer
}

type timing struct {
	duration  time.Duration // 0 runs until signalled
	heartbeat time.Duration
	print     time.Duration
}

// runLoop steps sys once per tick by the wall-clock time since the previous
// tick. It returns the shutdown reason: the signal name, "COMPLETE" once the
// configured duration has been simulated, or "ERROR" when the system can no
// longer be stepped.
func runLoop(sys *logic.WaterSystem, out outputs, tm timing, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) (string, error) {
	start := now()
	last := start
	lastPrint := start
	var elapsed time.Duration

	if out.series != nil {
		r := sys.Reading()
		out.series.Add(0, r.LevelA, r.LevelB)
	}

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
			publishShutdown(out, now(), signalName)
			return signalName, nil

		case <-tick:
			t := now()
			dt := t.Sub(last)
			last = t

			res, err := sys.Step(dt)
			if err != nil {
				if out.metrics != nil {
					out.metrics.Error("step")
				}
				if errors.Is(err, logic.ErrEmptyTank) {
					log.Printf("step error: %v", err)
					publishShutdown(out, t, "ERROR")
					return "ERROR", fmt.Errorf("step: %w", err)
				}
				// Clock stepped backwards; resume from here.
				log.Printf("step error: %v", err)
				continue
			}
			elapsed += dt

			for _, event := range res.Events {
				log.Printf("event: %s (pump=%s a=%.4f b=%.4f)", event.Type, event.Pump, event.LevelA, event.LevelB)
				if out.publisher != nil {
					if err := out.publisher.Publish(event); err != nil {
						log.Printf("publish error: %v", err)
						if out.metrics != nil {
							out.metrics.Error("publish")
						}
						// Don't crash on publish failure
					}
				}
				if out.relay != nil && (event.Type == logic.EventPumpOn || event.Type == logic.EventPumpOff) {
					if err := out.relay.Set(event.Type == logic.EventPumpOn); err != nil {
						log.Printf("relay error: %v", err)
						if out.metrics != nil {
							out.metrics.Error("relay")
						}
					}
				}
			}

			r := sys.Reading()
			if out.metrics != nil {
				out.metrics.Observe(res, r)
			}
			if out.series != nil {
				out.series.Add(elapsed, r.LevelA, r.LevelB)
			}

			// Update status tracker for HTTP consumers
			if out.tracker != nil {
				condA, condB := sys.Conditions()
				out.tracker.Update(r, sys.Counts(), condA, condB, elapsed)
				if out.mqttStatus != nil {
					out.tracker.SetMQTTConnected(out.mqttStatus.IsConnected())
				}
			}

			if out.console != nil && tm.print > 0 && t.Sub(lastPrint) >= tm.print {
				fmt.Fprint(out.console, status.FormatConsole(r))
				lastPrint = t
			}

			// Check for heartbeat
			if hb := sys.CheckHeartbeat(t, tm.heartbeat); hb != nil {
				log.Printf("heartbeat: uptime=%v steps=%d pump_on=%d pump_off=%d a=%.4f b=%.4f",
					hb.Uptime, hb.Counts.Steps, hb.Counts.PumpOn, hb.Counts.PumpOff, hb.Reading.LevelA, hb.Reading.LevelB)
				if out.publisher != nil {
					hbEvent := mqtt.SystemEvent{
						Timestamp: hb.Timestamp,
						Event:     "HEARTBEAT",
					}
					if out.tracker != nil {
						hbEvent.RawPayload = status.FormatStatusEvent(out.tracker.Snapshot(), "HEARTBEAT", "")
					}
					if err := out.publisher.PublishSystem(hbEvent); err != nil {
						log.Printf("heartbeat publish error: %v", err)
					}
				}
			}

			if tm.duration > 0 && elapsed >= tm.duration {
				log.Printf("simulated %v, finishing", elapsed)
				publishShutdown(out, t, "COMPLETE")
				return "COMPLETE", nil
			}
		}
	}
}

func publishShutdown(out outputs, ts time.Time, reason string) {
	if out.publisher == nil {
		return
	}
	event := mqtt.SystemEvent{
		Timestamp: ts,
		Event:     "SHUTDOWN",
		Reason:    reason,
		Retained:  true,
	}
	if out.tracker != nil {
		if out.mqttStatus != nil {
			out.tracker.SetMQTTConnected(out.mqttStatus.IsConnected())
		}
		event.RawPayload = status.FormatStatusEvent(out.tracker.Snapshot(), "SHUTDOWN", reason)
	}
	if err := out.publisher.PublishSystem(event); err != nil {
		log.Printf("failed to publish shutdown event: %v", err)
	} else {
		log.Printf("published shutdown event")
	}
}
