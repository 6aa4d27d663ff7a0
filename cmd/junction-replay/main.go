// Command junction-replay runs a recorded scene through the violation rules
// and writes one JSON report per frame.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/junction.report/internal/config"
	"github.com/banshee-data/junction.report/internal/junction"
	"github.com/banshee-data/junction.report/internal/monitoring"
	"github.com/banshee-data/junction.report/internal/recognition"
	"github.com/banshee-data/junction.report/internal/replay"
	"github.com/banshee-data/junction.report/internal/version"
)

var (
	configPath    = flag.String("config", "", "path to tuning JSON (defaults apply when empty)")
	recordingPath = flag.String("recording", "", "path to recorded scene JSON")
	outPath       = flag.String("out", "", "write frame reports here instead of stdout")
	debug         = flag.Bool("debug", false, "enable debug logging")
	showVersion   = flag.Bool("version", false, "print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("junction-replay"))
		return
	}
	if *recordingPath == "" {
		log.Fatal("-recording is required")
	}
	monitoring.SetDebug(*debug)

	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	rec, err := replay.LoadRecording(*recordingPath)
	if err != nil {
		return fmt.Errorf("load recording: %w", err)
	}
	lanes, err := rec.BuildLanes()
	if err != nil {
		return fmt.Errorf("build lanes: %w", err)
	}

	var (
		plates     junction.PlateReader
		afterFrame func(context.Context) error
	)
	if cfg.GetAsyncRecognition() {
		p := recognition.NewPool(replay.RecordedRecognizer, recognition.PoolConfig{
			Workers:   cfg.GetRecognitionWorkers(),
			QueueSize: cfg.GetRecognitionQueueSize(),
			Timeout:   cfg.GetRecognitionTimeout(),
		})
		defer func() {
			p.Close()
			s := p.Stats()
			log.Printf("recognition: %d submitted, %d dropped, %d completed, %d failed",
				s.Submitted, s.Dropped, s.Completed, s.Failed)
		}()
		plates = p
		afterFrame = p.Flush
	} else {
		plates = recognition.NewInline(replay.RecordedRecognizer)
	}

	scene, err := junction.NewScene(junction.SceneConfigFromTuning(cfg), lanes, plates)
	if err != nil {
		return fmt.Errorf("create scene: %w", err)
	}

	var w io.Writer = os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	bw := bufio.NewWriter(w)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("replaying %d frames over %d lanes", len(rec.Frames), len(scene.Lanes()))
	r := replay.NewReplayer(scene)
	r.AfterFrame = afterFrame
	sum, err := r.Run(ctx, rec, bw)
	log.Printf("replayed %d frames, %d vehicle reports: stop line %d, yield %d, guidance %d, red light %d",
		sum.Frames, sum.VehicleReports, sum.CrossingStopLine, sum.FailsToYield,
		sum.DrivesWithoutGuidance, sum.RunsRedLight)
	if ferr := bw.Flush(); ferr != nil && err == nil {
		err = fmt.Errorf("write reports: %w", ferr)
	}
	return err
}
