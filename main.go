// Command thermo.report logs a Voltcraft K204 four-channel thermometer
// to an xlsx workbook and a SQLite database, with an optional live
// chart served over HTTP while the run is in progress.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/thermo.report/internal/chart"
	"github.com/banshee-data/thermo.report/internal/config"
	"github.com/banshee-data/thermo.report/internal/k204"
	"github.com/banshee-data/thermo.report/internal/meter"
	"github.com/banshee-data/thermo.report/internal/poller"
	"github.com/banshee-data/thermo.report/internal/recorder"
	"github.com/banshee-data/thermo.report/internal/sheet"
	"github.com/banshee-data/thermo.report/internal/summary"
)

var (
	portName   = flag.String("port", "", "Serial port the meter is connected to")
	configPath = flag.String("config", config.DefaultPath, "Path to the logger config file")
	dbPath     = flag.String("db", "thermo.db", "Path to the readings database")
	listen     = flag.String("listen", ":8080", "Listen address for the live chart (empty disables)")
	devMode    = flag.Bool("dev", false, "Run against a simulated meter instead of real hardware")
	cycles     = flag.Int("cycles", -1, "Number of cycles to run, 0 = endless (-1 = use config)")
	interval   = flag.Duration("interval", 0, "Sample interval (0 = use config)")
	prefix     = flag.String("prefix", "", "Output file name prefix (empty = use config)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	runCycles := cfg.GetCycles()
	if *cycles >= 0 {
		runCycles = *cycles
	}
	runInterval := cfg.GetInterval()
	if *interval > 0 {
		runInterval = *interval
	}
	runPrefix := cfg.GetPrefix()
	if *prefix != "" {
		runPrefix = *prefix
	}

	var m *meter.MeterPort
	if *devMode {
		m = meter.NewMeterPort(meter.NewSimulatedPort())
		m.SetTiming(50*time.Millisecond, 200*time.Millisecond)
		log.Print("dev mode: using simulated meter")
	} else {
		if *portName == "" {
			ports, err := meter.ListPorts()
			if err != nil {
				log.Fatalf("failed to enumerate serial ports: %v", err)
			}
			if len(ports) == 0 {
				log.Fatal("no serial ports found; connect the meter and pass -port")
			}
			fmt.Fprintln(os.Stderr, "available serial ports:")
			for _, p := range ports {
				fmt.Fprintf(os.Stderr, "  %s\n", p)
			}
			log.Fatal("pass -port to select the meter's port")
		}
		m, err = meter.Open(*portName)
		if err != nil {
			log.Fatalf("failed to open %s: %v", *portName, err)
		}
	}
	defer m.Close()

	start := time.Now()
	xlsxPath := sheet.Filename(runPrefix, start)

	sheetWriter, err := sheet.NewWriter(xlsxPath, cfg)
	if err != nil {
		log.Fatalf("failed to create workbook: %v", err)
	}
	defer sheetWriter.Close()

	db, err := recorder.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	runSink, err := recorder.NewRunSink(db, runPrefix)
	if err != nil {
		log.Fatalf("failed to start run: %v", err)
	}

	chartBuilder := chart.NewBuilder(fmt.Sprintf("K204 live data (%s)", runPrefix), cfg)

	log.Printf("logging to %s (run %s)", xlsxPath, runSink.RunID())
	if runCycles == 0 {
		log.Printf("cycles: endless, interval: %s", runInterval)
	} else {
		log.Printf("cycles: %d, interval: %s", runCycles, runInterval)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// serveCtx outlives a bounded run only long enough for the HTTP
	// server to shut down.
	serveCtx, serveStop := context.WithCancel(ctx)
	defer serveStop()

	var wg sync.WaitGroup
	if *listen != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveChart(serveCtx, *listen, chartBuilder)
		}()
	}

	p := poller.New(m, runInterval, runCycles, sheetWriter, runSink, chartBuilder)
	if err := p.Run(ctx); err != nil && err != context.Canceled {
		log.Printf("acquisition stopped: %v", err)
	}
	serveStop()
	wg.Wait()

	if chartBuilder.Len() > 0 {
		pngPath := fmt.Sprintf("%s_%s.png", runPrefix, start.Format("20060102_150405"))
		if err := chartBuilder.SavePNG(pngPath); err != nil {
			log.Printf("failed to save chart: %v", err)
		} else {
			log.Printf("chart saved to %s", pngPath)
		}
	}

	log.Print("run summary:")
	for i := 0; i < k204.NumChannels; i++ {
		samples, err := db.ChannelSamples(runSink.RunID(), i)
		if err != nil {
			log.Printf("  %s: summary unavailable: %v", k204.ChannelLabel(i), err)
			continue
		}
		log.Printf("  %s", summary.ForChannel(k204.ChannelLabel(i), samples))
	}

	log.Printf("done, %s written", xlsxPath)
}

// serveChart serves the live chart until the context is cancelled.
func serveChart(ctx context.Context, addr string, b *chart.Builder) {
	mux := http.NewServeMux()
	mux.HandleFunc("/chart", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		if err := b.RenderHTML(w); err != nil {
			http.Error(w, "failed to render chart", http.StatusInternalServerError)
		}
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/chart", http.StatusFound)
	})

	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		log.Printf("live chart at http://%s/chart", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start chart server: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("chart server shutdown error: %v", err)
	}
}
