// Command neuroplay-scan discovers nearby NeuroPlay devices and records
// each one seen into the device history store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-ble/ble"

	"github.com/dbehnke/neuroplay-go/pkg/config"
	"github.com/dbehnke/neuroplay-go/pkg/logger"
	"github.com/dbehnke/neuroplay-go/pkg/metrics"
	"github.com/dbehnke/neuroplay-go/pkg/model"
	"github.com/dbehnke/neuroplay-go/pkg/scanner"
	"github.com/dbehnke/neuroplay-go/pkg/session"
	"github.com/dbehnke/neuroplay-go/pkg/store"
	"github.com/dbehnke/neuroplay-go/pkg/web"
)

var (
	version   = "dev"
	gitCommit = "unknown"
	buildTime = "unknown"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("neuroplay-scan %s\n", version)
		fmt.Printf("Git Commit: %s\n", gitCommit)
		fmt.Printf("Built: %s\n", buildTime)
		os.Exit(0)
	}

	log := logger.New(logger.Config{Level: "info", Format: "text"})
	log.Info("starting neuroplay-scan",
		logger.String("version", version),
		logger.String("commit", gitCommit),
		logger.String("build_time", buildTime))

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Error("failed to load configuration", logger.Error(err))
		os.Exit(1)
	}
	log = logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup

	db, err := store.New(store.Config{Path: cfg.Store.Path}, log)
	if err != nil {
		log.Error("failed to open device history store", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()
	devices := db.Devices()

	collector := metrics.NewCollector()
	if cfg.Metrics.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			srv := metrics.NewServer(metrics.Config{Enabled: true, Port: cfg.Metrics.Port, Path: cfg.Metrics.Path}, collector, log)
			if err := srv.Start(ctx); err != nil && err != context.Canceled {
				log.Error("metrics server error", logger.Error(err))
			}
		}()
	}

	var webServer *web.Server
	if cfg.Web.Enabled {
		webServer = web.NewServer(web.Config{Enabled: true, Host: cfg.Web.Host, Port: cfg.Web.Port}, log, func() interface{} {
			all, _ := devices.GetAll()
			return all
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := webServer.Start(ctx); err != nil && err != context.Canceled {
				log.Error("web server error", logger.Error(err))
			}
		}()
	}

	modelFilter := make(map[model.Model]bool)
	for _, name := range cfg.Device.Models {
		switch name {
		case model.SixChannel.String():
			modelFilter[model.SixChannel] = true
		case model.EightChannel.String():
			modelFilter[model.EightChannel] = true
		}
	}

	sc, err := scanner.New(scanner.Config{Models: modelFilter}, log, func(desc *model.Descriptor, addr ble.Addr) *session.Session {
		sess := session.New(desc, addr, log)
		sess.SetMetrics(collector)
		return sess
	})
	if err != nil {
		log.Error("failed to create scanner", logger.Error(err))
		os.Exit(1)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			err := sc.Discover(ctx, func(sess *session.Session) {
				desc := sess.Descriptor
				log.Info("discovered device",
					logger.String("name", desc.FullName),
					logger.String("address", desc.Address))
				if err := devices.Upsert(desc.Address, desc.FullName, desc.Model.String(), desc.ID); err != nil {
					log.Warn("failed to record discovered device", logger.Error(err))
				}
				if webServer != nil {
					webServer.Hub().BroadcastDeviceConnected(desc.Address, desc.FullName)
				}
			})
			if err != nil {
				log.Error("scan pass failed", logger.Error(err))
				return
			}
		}
	}()

	log.Info("neuroplay-scan running, press ctrl-c to stop")

	sig := <-sigChan
	log.Info("received shutdown signal", logger.String("signal", sig.String()))
	cancel()
	wg.Wait()
	log.Info("neuroplay-scan stopped")
}
