package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/spacecraft-raycast/engine"
	"github.com/signalsfoundry/spacecraft-raycast/frame"
	"github.com/signalsfoundry/spacecraft-raycast/internal/logging"
	"github.com/signalsfoundry/spacecraft-raycast/internal/observability"
	"github.com/signalsfoundry/spacecraft-raycast/orbit"
	"github.com/signalsfoundry/spacecraft-raycast/timectrl"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "raycast: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	quat        string
	tle1, tle2  string
	position    string
	start       string
	tick        time.Duration
	steps       int
	realtime    bool
	ra, dec     float64
	sigma       float64
	bands       int
	detectors   string
	workers     int
	metricsAddr string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("raycast", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.quat, "quat", "0,0,0,1", "spacecraft attitude quaternion x,y,z,w (scalar last)")
	fs.StringVar(&o.tle1, "tle1", "", "first TLE line; places the Earth occulter from SGP4")
	fs.StringVar(&o.tle2, "tle2", "", "second TLE line")
	fs.StringVar(&o.position, "position", "", "fixed inertial position x,y,z in km; ignored when a TLE is given")
	fs.StringVar(&o.start, "start", "", "RFC3339 start time (default now)")
	fs.DurationVar(&o.tick, "tick", time.Minute, "time between steps")
	fs.IntVar(&o.steps, "steps", 1, "number of steps to compute")
	fs.BoolVar(&o.realtime, "realtime", false, "wait one tick of wall-clock time between steps")
	fs.Float64Var(&o.ra, "ra", 0, "source right ascension in degrees")
	fs.Float64Var(&o.dec, "dec", 0, "source declination in degrees")
	fs.Float64Var(&o.sigma, "sigma", 0, "Gaussian localisation width in degrees; 0 casts a single ray at ra/dec")
	fs.IntVar(&o.bands, "bands", 36, "declination bands of the sky grid used with -sigma")
	fs.StringVar(&o.detectors, "detectors", "", "comma-separated detectors to compute (default all)")
	fs.IntVar(&o.workers, "workers", 1, "goroutines testing rays")
	fs.StringVar(&o.metricsAddr, "metrics-addr", "", "HTTP address for Prometheus /metrics (disabled when empty)")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.steps < 1 {
		return o, fmt.Errorf("-steps must be positive, got %d", o.steps)
	}
	if (o.tle1 == "") != (o.tle2 == "") {
		return o, errors.New("-tle1 and -tle2 must be given together")
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	log := logging.NewFromEnv(stderr)

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	collector, err := observability.NewEngineCollector(nil)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	if srv := serveMetrics(opts.metricsAddr, collector, log); srv != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	sc, err := sceneFromOptions(opts)
	if err != nil {
		return err
	}
	sc.engineOpts = []engine.Option{
		engine.WithLogger(log),
		engine.WithMetricsRecorder(collector),
		engine.WithConfig(engine.Config{Workers: opts.workers}),
	}

	mode := timectrl.Accelerated
	if opts.realtime {
		mode = timectrl.RealTime
	}
	tc := timectrl.NewTimeController(sc.start, opts.tick, mode)
	out := newRecordWriter(stdout)
	tc.AddListener(func(ctx context.Context, step int, now time.Time) error {
		rec, err := sc.computeStep(ctx, step, now)
		if err != nil {
			return err
		}
		return out.Write(rec)
	})

	log.Info(ctx, "starting raycast sweep",
		logging.String("start", sc.start.Format(time.RFC3339)),
		logging.Int("steps", opts.steps),
		logging.Duration("tick", opts.tick),
	)
	return tc.Run(ctx, opts.steps)
}

func serveMetrics(addr string, collector *observability.EngineCollector, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}

func sceneFromOptions(o options) (*scene, error) {
	q, err := parseFloats(o.quat, 4)
	if err != nil {
		return nil, fmt.Errorf("-quat: %w", err)
	}
	att, err := frame.NewAttitude(q[0], q[1], q[2], q[3])
	if err != nil {
		return nil, fmt.Errorf("-quat: %w", err)
	}

	start := time.Now().UTC()
	if o.start != "" {
		start, err = time.Parse(time.RFC3339, o.start)
		if err != nil {
			return nil, fmt.Errorf("-start: %w", err)
		}
	}

	var pos orbit.PositionSource
	switch {
	case o.tle1 != "":
		pos, err = orbit.NewSGP4FromTLE(o.tle1, o.tle2)
		if err != nil {
			return nil, err
		}
	case o.position != "":
		p, err := parseFloats(o.position, 3)
		if err != nil {
			return nil, fmt.Errorf("-position: %w", err)
		}
		pos = orbit.StaticPosition{Position: mgl64.Vec3{p[0], p[1], p[2]}}
	}

	var selection []string
	for _, name := range strings.Split(o.detectors, ",") {
		if name = strings.TrimSpace(name); name != "" {
			selection = append(selection, name)
		}
	}

	return &scene{
		attitude:  att,
		position:  pos,
		start:     start,
		ra:        o.ra,
		dec:       o.dec,
		sigma:     o.sigma,
		bands:     o.bands,
		selection: selection,
	}, nil
}

func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("want %d comma-separated numbers, got %q", n, s)
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
