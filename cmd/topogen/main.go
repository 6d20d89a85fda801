package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	eb "tsch-topology/internal/eventBus"
	"tsch-topology/internal/metrics"
	"tsch-topology/internal/mqtt"
	"tsch-topology/internal/sim"
	"tsch-topology/internal/utils"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
)

func main() {
	// 1. Pick scenario file or quick flags; key=[value] arguments override it
	cfg := flag.String("scenario", "", "YAML, JSON or TOML scenario description")
	logDir := flag.String("log-dir", "logs", "directory for the run log (empty for stdout only)")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	closer, err := utils.SetupLogging(*logDir, "topogen", *level)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer closer.Close()

	sc := sim.DefaultScenario()
	if *cfg != "" {
		if sc, err = sim.LoadScenario(*cfg); err != nil {
			log.Fatalf("scenario: %v", err)
		}
	}
	if err := sim.ApplyArgs(sc, flag.Args()); err != nil {
		log.Fatalf("arguments: %v", err)
	}
	log.WithField("args", flag.Args()).Info("starting topology generation")

	bus := eb.NewEventBus()
	coll := metrics.NewCollector()
	runner := sim.NewRunner(sc, bus, coll)

	if sc.MQTT.Broker != "" {
		manager, err := mqtt.New(sc.MQTT.Broker, sc.MQTT.ClientID)
		if err != nil {
			log.Fatalf("mqtt: %v", err)
		}
		defer manager.Disconnect()
		runner.SetPublisher(manager)
	}

	// catch Ctrl-C / SIGTERM and cancel the running placements
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	results, runErr := runner.Run(ctx)
	if runErr != nil {
		log.WithError(runErr).Error("some iterations failed")
	}

	// _always_ flush metrics before exit
	if sc.Output.MetricsFile != "" {
		path := sc.Output.MetricsFile
		if sc.Output.Dir != "" && !filepath.IsAbs(path) {
			path = filepath.Join(sc.Output.Dir, path)
		}
		if err := coll.Flush(path); err != nil {
			log.Printf("flush-metrics: %v", err)
		} else {
			log.Printf("stats written to %s", path)
		}
	}

	printSummary(results)
	if runErr != nil {
		os.Exit(1)
	}
}

func printSummary(results []sim.IterationResult) {
	ok := color.New(color.FgGreen).SprintFunc()
	bad := color.New(color.FgRed, color.Bold).SprintFunc()
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(color.Output, "it%-3d %s %v\n", res.Iteration, bad("FAILED"), res.Err)
			continue
		}
		st := res.Stats
		fmt.Fprintf(color.Output, "it%-3d %s seed=%d nodes=%d attempts=%d links=%d degree=%d..%d max_hops=%d connected=%t\n",
			res.Iteration, ok("OK"), res.Seed, st.Nodes, res.Placement.Attempts, st.Links,
			st.MinDegree, st.MaxDegree, st.MaxHops, st.Connected)
	}
}
