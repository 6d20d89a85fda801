package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	eb "tsch-topology/internal/eventBus"
	"tsch-topology/internal/metrics"
	"tsch-topology/internal/mqtt"
	"tsch-topology/internal/server"
	"tsch-topology/internal/utils"

	log "github.com/sirupsen/logrus"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	timeout := flag.Duration("place-timeout", 10*time.Second, "wall-clock budget per placement request")
	broker := flag.String("mqtt-broker", "", "MQTT broker URL; empty disables MQTT")
	requestTopic := flag.String("mqtt-requests", "simulation/topology/request", "topic carrying placement requests")
	replyTopic := flag.String("mqtt-replies", "simulation/topology/reply", "default topic for placement replies")
	monitor := flag.Duration("monitor", 0, "resource monitor interval (0 disables)")
	logDir := flag.String("log-dir", "logs", "directory for the server log (empty for stdout only)")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	closer, err := utils.SetupLogging(*logDir, "topologyd", *level)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	bus := eb.NewEventBus()
	coll := metrics.NewCollector()
	go coll.Consume(bus.Subscribe())

	if *monitor > 0 {
		utils.MonitorResources(ctx, *monitor)
	}

	if *broker != "" {
		manager, err := mqtt.New(*broker, "topologyd")
		if err != nil {
			log.Fatalf("mqtt: %v", err)
		}
		defer manager.Disconnect()
		if err := manager.Subscribe(*requestTopic, 1, mqtt.ProcessPlacementRequest(bus, *replyTopic, *timeout)); err != nil {
			log.Fatalf("mqtt subscribe: %v", err)
		}
		log.WithField("topic", *requestTopic).Info("listening for MQTT placement requests")
	}

	srv := server.NewServer(*addr, bus, coll, *timeout)
	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		bus.Close()
	}()

	log.WithField("addr", *addr).Info("server started")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
