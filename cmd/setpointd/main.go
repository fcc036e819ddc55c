// Command setpointd bridges local position targets to a MAVLink flight
// controller. It consumes poses from exactly one source, the transform
// stream or discrete HTTP submissions, resolves them into the selected
// MAV_FRAME convention, and writes SET_POSITION_TARGET_LOCAL_NED frames to
// the serial link.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/meridian-uas/setpoint.bridge/internal/api"
	"github.com/meridian-uas/setpoint.bridge/internal/config"
	"github.com/meridian-uas/setpoint.bridge/internal/fculink"
	"github.com/meridian-uas/setpoint.bridge/internal/frame"
	"github.com/meridian-uas/setpoint.bridge/internal/paramdb"
	"github.com/meridian-uas/setpoint.bridge/internal/posesource"
	"github.com/meridian-uas/setpoint.bridge/internal/setpoint"
	"github.com/meridian-uas/setpoint.bridge/internal/tfbus"
	"github.com/meridian-uas/setpoint.bridge/internal/version"
)

var (
	devMode     = flag.Bool("dev", false, "Run with a mock flight controller link")
	listen      = flag.String("listen", ":8080", "Listen address")
	dbFile      = flag.String("db", "setpoint_params.db", "Parameter database path")
	serialPort  = flag.String("port", "", "Serial port to the flight controller (overrides config)")
	baudRate    = flag.Int("baud", 0, "Serial baud rate (overrides config)")
	configFile  = flag.String("config", "", "Path to a JSON config file")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg := config.Empty()
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	params, err := paramdb.Open(*dbFile)
	if err != nil {
		log.Fatalf("failed to open parameter database: %v", err)
	}
	defer params.Close()

	// Seed the store from the config file on first boot; afterwards the
	// stored values win so runtime selections survive restarts.
	seedParams(params, cfg)

	frames := frame.NewStore(frame.FromPersistedName(
		params.GetParamOrDefault(paramdb.ParamMavFrame, "")))
	selector := frame.NewSelector(frames, params)
	log.Printf("active frame convention: %s", frames.Active())

	var link fculink.LinkInterface
	if *devMode {
		mockLink, _ := fculink.NewMockLink(255, 190)
		link = mockLink
		log.Print("dev mode: using mock flight controller link")
	} else {
		path := *serialPort
		if path == "" {
			path = cfg.GetSerialPort()
		}
		if path == "" {
			log.Fatal("Serial port is required outside dev mode (-port or config serial_port)")
		}
		baud := cfg.GetBaudRate()
		if *baudRate > 0 {
			baud = *baudRate
		}
		realLink, err := fculink.NewRealLink(path, fculink.PortOptions{BaudRate: baud}, 255, 190)
		if err != nil {
			log.Fatalf("failed to open flight controller link: %v", err)
		}
		link = realLink
		log.Printf("flight controller link on %s at %d baud", path, baud)
	}
	defer link.Close()

	encoder := setpoint.NewEncoder(frames, link, cfg.GetTargetSystem(), cfg.GetTargetComponent())

	tfListen := params.GetParamOrDefault(paramdb.ParamTFListen,
		strconv.FormatBool(cfg.GetTFListen())) == "true"
	rateLimit := cfg.GetTFRateLimit()
	if v, ok, _ := params.GetParam(paramdb.ParamTFRateLimit); ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			rateLimit = parsed
		}
	}

	var bus *tfbus.Bus
	if tfListen {
		bus = tfbus.New()
	}

	producer, receiver, err := posesource.New(posesource.Config{
		Listen:      tfListen,
		SourceFrame: params.GetParamOrDefault(paramdb.ParamTFFrameID, cfg.GetTFFrameID()),
		TargetFrame: params.GetParamOrDefault(paramdb.ParamTFChildFrameID, cfg.GetTFChildFrameID()),
		RateLimit:   rateLimit,
	}, bus, nil, encoder.HandlePose)
	if err != nil {
		log.Fatalf("failed to create pose source: %v", err)
	}
	if tfListen {
		log.Printf("pose source: transform stream at %.0f Hz", rateLimit)
	} else {
		log.Print("pose source: discrete setpoint submissions")
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run the monitor routine to manage IO on the serial link
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := link.Monitor(ctx); err != nil && err != context.Canceled {
			log.Printf("failed to monitor flight controller link: %v", err)
		}
		log.Print("link monitor routine terminated")
	}()

	// pose producer goroutine: drains the active source into the encoder
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := producer.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("pose source stopped: %v", err)
		}
		log.Print("pose source routine terminated")
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := api.NewServer(frames, selector, receiver, bus, cfg).ServeMux()
		link.AttachAdminRoutes(mux)
		params.AttachAdminRoutes(mux)

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}

// seedParams writes config-file values into the parameter store without
// overwriting anything an operator already changed at runtime.
func seedParams(params *paramdb.DB, cfg *config.Config) {
	seeds := map[string]string{
		paramdb.ParamMavFrame:       cfg.GetMavFrame(),
		paramdb.ParamTFListen:       strconv.FormatBool(cfg.GetTFListen()),
		paramdb.ParamTFFrameID:      cfg.GetTFFrameID(),
		paramdb.ParamTFChildFrameID: cfg.GetTFChildFrameID(),
		paramdb.ParamTFRateLimit:    strconv.FormatFloat(cfg.GetTFRateLimit(), 'f', -1, 64),
	}
	for name, value := range seeds {
		if err := params.SetParamIfAbsent(name, value); err != nil {
			log.Printf("failed to seed param %q: %v", name, err)
		}
	}
}
