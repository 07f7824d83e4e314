// Command rematchd runs the rematcher core as a bump-in-the-wire process:
// it attaches to a live interface with a raw AF_PACKET socket, feeds every
// frame it reads through engine.Engine.ProcessFrame, and writes back
// whatever the verdict calls for. The control plane (admitting clients,
// picking backends, flagging rematches) is an external collaborator that
// writes through Engine's table accessors; rematchd itself only runs the
// data plane and a metrics endpoint.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/moraru210/rematcher/engine"
	"github.com/moraru210/rematcher/internal"
	"github.com/moraru210/rematcher/metrics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var (
		flagInterface    = "eth0"
		flagListenerPort = int(0)
		flagMetricsAddr  = ":9090"
		flagLogLevel     = "info"
	)
	flag.StringVar(&flagInterface, "i", flagInterface, "Interface to attach a raw socket to.")
	flag.IntVar(&flagListenerPort, "listener-port", flagListenerPort, "LB_LISTENER_PORT; 0 uses the compiled-in default.")
	flag.StringVar(&flagMetricsAddr, "metrics-addr", flagMetricsAddr, "Address to serve /metrics on.")
	flag.StringVar(&flagLogLevel, "log-level", flagLogLevel, "trace, debug, info, warn or error.")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(flagLogLevel)}))

	cfg := engine.DefaultConfig()
	if flagListenerPort != 0 {
		cfg.ListenerPort = uint16(flagListenerPort)
	}

	bridge, err := internal.NewBridge(flagInterface)
	if err != nil {
		return fmt.Errorf("attaching to %s: %w", flagInterface, err)
	}
	defer bridge.Close()

	mtu, err := bridge.MTU()
	if err != nil {
		return fmt.Errorf("reading MTU of %s: %w", flagInterface, err)
	}
	hw, err := bridge.HardwareAddress6()
	if err != nil {
		return fmt.Errorf("reading hardware address of %s: %w", flagInterface, err)
	}

	collector := metrics.New()
	eng := engine.New(cfg, log, collector)
	collector.Attach(eng)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collector)
	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		log.Error("metrics server exited", "err", http.ListenAndServe(flagMetricsAddr, nil))
	}()

	log.Info("rematchd attached", "interface", flagInterface, "mtu", mtu, "hw_addr", fmt.Sprintf("%x", hw), "listener_port", cfg.ListenerPort)
	return serve(eng, bridge, mtu, log)
}

// serve runs the read/process/write loop grounded on the teacher's bridge
// example loop: read a frame, hand it to the engine, act on the verdict,
// and back off briefly when the interface is idle.
func serve(eng *engine.Engine, bridge *internal.Bridge, mtu int, log *slog.Logger) error {
	buf := make([]byte, mtu)
	lastActivity := time.Now()
	for {
		n, err := bridge.Read(buf)
		if err != nil {
			return fmt.Errorf("reading frame: %w", err)
		}
		if n == 0 {
			if time.Since(lastActivity) > 4*time.Second {
				time.Sleep(5 * time.Millisecond)
			} else {
				runtime.Gosched()
			}
			continue
		}
		lastActivity = time.Now()

		res := eng.ProcessFrame(buf[:n])
		switch res.Action {
		case engine.TX:
			if _, err := bridge.Write(buf[:n]); err != nil {
				log.Error("writing rewritten frame", "err", err)
			}
		case engine.Aborted:
			log.Debug("dropped frame", "reason", res.Reason)
		}
	}
}

func parseLevel(s string) slog.Level {
	switch s {
	case "trace":
		return engine.LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
