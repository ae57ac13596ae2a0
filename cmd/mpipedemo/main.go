// Command mpipedemo drives a small mpipe pipeline from the command line: it
// squares a sequence of integers through a configurable ordered or
// unordered stage, logging each result and exposing Prometheus metrics
// about the run. It exists to exercise the mpipe package the way the
// linksrus services exercise their library packages from a cli.App entry
// point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/ikarth/mpipe"
	"github.com/ikarth/mpipe/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

var (
	appName = "mpipedemo"
	appSha  = "populated-at-link-time"
	logger  *logrus.Entry
)

func main() {
	host, _ := os.Hostname()
	rootLogger := logrus.New()
	rootLogger.SetFormatter(new(logrus.JSONFormatter))
	logger = rootLogger.WithFields(logrus.Fields{
		"app":  appName,
		"sha":  appSha,
		"host": host,
	})

	if err := makeApp().Run(os.Args); err != nil {
		logger.WithField("err", err).Error("shutting down due to error")
		_ = os.Stderr.Sync()
		os.Exit(1)
	}
}

func makeApp() *cli.App {
	app := cli.NewApp()
	app.Name = appName
	app.Version = appSha
	app.Usage = "square a list of integers through an mpipe stage"
	app.Flags = []cli.Flag{
		cli.IntFlag{
			Name:   "num-workers",
			Value:  runtime.NumCPU(),
			EnvVar: "NUM_WORKERS",
			Usage:  "The number of workers in the demo stage's pool",
		},
		cli.BoolFlag{
			Name:   "unordered",
			EnvVar: "UNORDERED",
			Usage:  "Use an unordered stage instead of the default ordered stage",
		},
		cli.StringFlag{
			Name:   "metrics-addr",
			Value:  ":9090",
			EnvVar: "METRICS_ADDR",
			Usage:  "Address to serve Prometheus metrics on; empty disables metrics",
		},
	}
	app.Action = runDemo
	return app
}

func runDemo(appCtx *cli.Context) error {
	inputs, err := parseInputs(appCtx.Args())
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reporter := metrics.New(reg)

	if addr := appCtx.String("metrics-addr"); addr != "" {
		go serveMetrics(addr, reg)
	}

	numWorkers := appCtx.Int("num-workers")
	if numWorkers < 1 {
		numWorkers = 1
	}

	stage, err := buildStage(appCtx.Bool("unordered"), numWorkers, reporter)
	if err != nil {
		return err
	}

	p := mpipe.New(stage)

	runID := uuid.New()
	runLogger := logger.WithField("run_id", runID.String())
	runLogger.WithField("count", len(inputs)).Info("submitting tasks")

	go func() {
		for _, n := range inputs {
			_ = p.Put(n)
		}
		p.Stop()
	}()

	for result := range p.Results() {
		runLogger.WithField("result", result).Info("task completed")
	}

	if err := p.Err(); err != nil {
		runLogger.WithField("err", err).Warn("one or more tasks failed")
	}

	return nil
}

func buildStage(unordered bool, numWorkers int, reporter mpipe.MetricsReporter) (*mpipe.Stage, error) {
	square := mpipe.TransformFunc(func(_ context.Context, task interface{}) (interface{}, error) {
		n, ok := task.(int)
		if !ok {
			return nil, fmt.Errorf("mpipedemo: expected int, got %T", task)
		}
		return n * n, nil
	})

	if unordered {
		stage, err := mpipe.NewUnorderedStage("square", square, numWorkers)
		if err != nil {
			return nil, err
		}
		return stage.WithMetrics(reporter), nil
	}

	stage, err := mpipe.NewOrderedStage("square", square, numWorkers)
	if err != nil {
		return nil, err
	}
	return stage.WithMetrics(reporter), nil
}

func parseInputs(args cli.Args) ([]int, error) {
	if len(args) == 0 {
		return []int{1, 2, 3, 4, 5}, nil
	}
	out := make([]int, 0, len(args))
	for _, a := range args {
		for _, field := range strings.Fields(a) {
			n, err := strconv.Atoi(field)
			if err != nil {
				return nil, fmt.Errorf("mpipedemo: invalid integer %q: %w", field, err)
			}
			out = append(out, n)
		}
	}
	return out, nil
}

func serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	logger.WithField("addr", addr).Info("serving metrics")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.WithField("err", err).Error("metrics server exited")
	}
}
