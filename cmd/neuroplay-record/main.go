// Command neuroplay-record connects to a single NeuroPlay device, validates
// its channel quality, and records an EEG session to EDF+ until
// interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
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
	modelName := flag.String("model", model.EightChannel.String(), "Device model to search for")
	deviceID := flag.Int("id", 0, "Device ID suffix to search for, e.g. 1 for \"NeuroPlay-8Cap (1)\"")
	flag.Parse()

	if *showVersion {
		fmt.Printf("neuroplay-record %s\n", version)
		fmt.Printf("Git Commit: %s\n", gitCommit)
		fmt.Printf("Built: %s\n", buildTime)
		os.Exit(0)
	}

	log := logger.New(logger.Config{Level: "info", Format: "text"})
	log.Info("starting neuroplay-record",
		logger.String("version", version),
		logger.String("commit", gitCommit),
		logger.String("build_time", buildTime))

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Error("failed to load configuration", logger.Error(err))
		os.Exit(1)
	}
	log = logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	var targetModel model.Model
	switch *modelName {
	case model.SixChannel.String():
		targetModel = model.SixChannel
	case model.EightChannel.String():
		targetModel = model.EightChannel
	default:
		log.Error("unknown device model", logger.String("model", *modelName))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup

	db, err := store.New(store.Config{Path: cfg.Store.Path}, log)
	if err != nil {
		log.Error("failed to open session history store", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()

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
	var activeSession *session.Session
	if cfg.Web.Enabled {
		webServer = web.NewServer(web.Config{Enabled: true, Host: cfg.Web.Host, Port: cfg.Web.Port}, log, func() interface{} {
			if activeSession == nil {
				return map[string]interface{}{"connected": false}
			}
			return map[string]interface{}{
				"connected": activeSession.IsConnected(),
				"device":    activeSession.Descriptor.FullName,
				"recording": activeSession.Recorder.IsRecording(),
			}
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := webServer.Start(ctx); err != nil && err != context.Canceled {
				log.Error("web server error", logger.Error(err))
			}
		}()
	}

	modelFilter := map[model.Model]bool{targetModel: true}
	sc, err := scanner.New(scanner.Config{Models: modelFilter, Timeout: time.Duration(cfg.Device.ScanTimeoutSecs) * time.Second}, log, func(desc *model.Descriptor, addr ble.Addr) *session.Session {
		sess := session.New(desc, addr, log)
		sess.SetMetrics(collector)
		return sess
	})
	if err != nil {
		log.Error("failed to create scanner", logger.Error(err))
		os.Exit(1)
	}

	log.Info("searching for device", logger.String("model", targetModel.String()), logger.Int("id", *deviceID))
	sess, err := sc.SearchFor(ctx, targetModel, *deviceID)
	if err != nil {
		log.Error("scan failed", logger.Error(err))
		os.Exit(1)
	}
	if sess == nil {
		log.Error("device not found before scan timeout")
		os.Exit(1)
	}
	activeSession = sess

	if err := sess.Connect(ctx); err != nil {
		log.Error("failed to connect to device", logger.Error(err))
		os.Exit(1)
	}
	log.Info("connected to device", logger.String("device", sess.Descriptor.FullName))
	if webServer != nil {
		webServer.Hub().BroadcastDeviceConnected(sess.Descriptor.Address, sess.Descriptor.FullName)
	}

	validateCtx, cancelValidate := context.WithTimeout(ctx, time.Duration(cfg.Validation.TimeoutSecs+2)*time.Second)
	statuses, err := sess.ValidateChannels(validateCtx)
	cancelValidate()
	if err != nil {
		log.Warn("channel validation failed, recording anyway", logger.Error(err))
	} else {
		for ch, status := range statuses {
			log.Info("channel validated", logger.String("channel", ch), logger.String("status", status.String()))
		}
		if webServer != nil {
			strStatuses := make(map[string]string, len(statuses))
			for ch, status := range statuses {
				strStatuses[ch] = status.String()
			}
			webServer.Hub().BroadcastValidationCompleted(sess.Descriptor.Address, strStatuses)
		}
	}

	if err := os.MkdirAll(cfg.Recording.Directory, 0o755); err != nil {
		log.Error("failed to create recording directory", logger.Error(err))
		os.Exit(1)
	}
	edfPath := filepath.Join(cfg.Recording.Directory, fmt.Sprintf("%s-%d.edf", sess.Descriptor.Name, sess.Descriptor.ID))

	sess.Recorder.SetFlushEvery(cfg.Recording.FlushEverySamples)
	sess.Recorder.SetPhysicalRange(cfg.Recording.PhysicalMinUV, cfg.Recording.PhysicalMaxUV)

	startedAt := time.Now()
	if err := sess.StartRecording(edfPath); err != nil {
		log.Error("failed to start recording", logger.Error(err))
		os.Exit(1)
	}
	log.Info("recording started", logger.String("path", edfPath))
	if webServer != nil {
		webServer.Hub().BroadcastRecordingStarted(sess.Descriptor.Address, edfPath)
	}

	sig := <-sigChan
	log.Info("received shutdown signal", logger.String("signal", sig.String()))

	if err := sess.StopRecording(); err != nil {
		log.Error("failed to stop recording cleanly", logger.Error(err))
	}
	duration := time.Since(startedAt)
	log.Info("recording stopped",
		logger.String("duration", duration.Round(time.Second).String()),
		logger.String("started", humanize.Time(startedAt)))
	if webServer != nil {
		webServer.Hub().BroadcastRecordingStopped(sess.Descriptor.Address)
	}

	if err := db.Sessions().Create(&store.RecordingSession{
		DeviceAddress: sess.Descriptor.Address,
		DeviceModel:   sess.Descriptor.Model.String(),
		ChannelCount:  sess.Descriptor.Model.ChannelCount(),
		EDFPath:       edfPath,
		StartedAt:     startedAt,
		EndedAt:       time.Now(),
		SampleCount:   int64(duration.Seconds()) * session.SamplingRate,
	}); err != nil {
		log.Warn("failed to persist recording session history", logger.Error(err))
	}

	if err := sess.Disconnect(); err != nil {
		log.Warn("disconnect reported an error", logger.Error(err))
	}
	if webServer != nil {
		webServer.Hub().BroadcastDeviceDisconnected(sess.Descriptor.Address)
	}

	cancel()
	wg.Wait()
	log.Info("neuroplay-record stopped")
}
