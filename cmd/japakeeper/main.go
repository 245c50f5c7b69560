package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/iudanet/japakeeper/internal/accounts"
	"github.com/iudanet/japakeeper/internal/cli"
	"github.com/iudanet/japakeeper/internal/device"
	"github.com/iudanet/japakeeper/internal/iocli"
	"github.com/iudanet/japakeeper/internal/storage"
	"github.com/iudanet/japakeeper/internal/storage/badgerdb"
	"github.com/iudanet/japakeeper/internal/storage/boltdb"
	"github.com/iudanet/japakeeper/internal/storage/broadcast"
	"github.com/iudanet/japakeeper/internal/storage/filechunk"
	"github.com/iudanet/japakeeper/internal/storage/memory"
	"github.com/iudanet/japakeeper/internal/storage/rediscache"
	"github.com/iudanet/japakeeper/internal/storage/sqlitekv"
	"github.com/iudanet/japakeeper/internal/storage/tempfile"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Глобальные флаги
	showVersion := flag.Bool("version", false, "Show version information")
	dataDir := flag.String("data", defaultDataDir(), "Data directory")
	redisAddr := flag.String("redis", "", "Redis address for the cache layer (optional)")
	resync := flag.Duration("resync", device.DefaultResyncInterval, "Device identity resync interval")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	// Получаем команду
	args := flag.Args()
	if len(args) == 0 {
		cli.PrintUsage()
		os.Exit(1)
	}
	command := args[0]

	level := slog.LevelWarn
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx := context.Background()

	if err := os.MkdirAll(*dataDir, 0o700); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create data directory: %v\n", err)
		os.Exit(1)
	}

	// Собираем слои хранения. Порядок в слайсе задает приоритет чтения:
	// сначала самые надежные локальные базы, затем вспомогательные носители.
	var layers []storage.Layer

	boltLayer, err := boltdb.New(ctx, filepath.Join(*dataDir, "japakeeper.db"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open boltdb layer: %v\n", err)
		os.Exit(1)
	}
	layers = append(layers, boltLayer)

	sqliteLayer, err := sqlitekv.New(ctx, filepath.Join(*dataDir, "japakeeper.sqlite"))
	if err != nil {
		// Слой не обязателен: остальные переживут его отсутствие
		logger.Warn("sqlite layer unavailable", "error", err)
	} else {
		layers = append(layers, sqliteLayer)
	}

	memLayer := memory.New()
	layers = append(layers, memLayer)

	layers = append(layers, tempfile.New(""))

	badgerLayer, err := badgerdb.New(ctx, filepath.Join(*dataDir, "badger"))
	if err != nil {
		logger.Warn("badger layer unavailable", "error", err)
	} else {
		layers = append(layers, badgerLayer)
	}

	chunkLayer, err := filechunk.New(filepath.Join(*dataDir, "chunks"))
	if err != nil {
		logger.Warn("filechunk layer unavailable", "error", err)
	} else {
		layers = append(layers, chunkLayer)
	}

	// Redis подключаем только по явному адресу; недоступность не фатальна
	if *redisAddr != "" {
		redisLayer, err := rediscache.New(ctx, *redisAddr)
		if err != nil {
			logger.Warn("redis cache layer unavailable", "addr", *redisAddr, "error", err)
		} else {
			layers = append(layers, redisLayer)
		}
	}

	// Широковещательный спул принимает только записи: другие процессы
	// на этой машине подхватят их через Receiver
	spoolDir := filepath.Join(*dataDir, "spool")
	var fanout []storage.Layer
	spool, err := broadcast.New(spoolDir)
	if err != nil {
		logger.Warn("broadcast spool unavailable", "error", err)
	} else {
		fanout = append(fanout, spool)
	}

	rep, err := storage.NewReplicator(storage.Config{
		Layers:       layers,
		FanoutLayers: fanout,
	}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build replicator: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := rep.Close(); err != nil {
			logger.Error("failed to close storage layers", "error", err)
		}
	}()

	// Идентичность устройства: восстановить из любого живого слоя
	// или создать заново
	manager := device.NewManager(rep, logger, *resync)
	deviceID, err := manager.Initialize(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize device identity: %v\n", err)
		os.Exit(1)
	}
	defer manager.Shutdown()

	// Сообщения от соседних процессов будят ресинк, как возврат
	// видимости вкладки
	receiver, err := broadcast.NewReceiver(spoolDir, memLayer, logger, manager.WakeResync)
	if err != nil {
		logger.Warn("broadcast receiver unavailable", "error", err)
	} else {
		defer func() {
			if err := receiver.Close(); err != nil {
				logger.Error("failed to close broadcast receiver", "error", err)
			}
		}()
	}

	svc, err := accounts.NewService(rep, memLayer, deviceID, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build account service: %v\n", err)
		os.Exit(1)
	}

	c := cli.New(iocli.NewStdio(), manager, svc, rep)
	c.Run(ctx, command, args[1:])
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".japakeeper"
	}
	return filepath.Join(home, ".japakeeper")
}

func printVersion() {
	fmt.Printf("JapaKeeper\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
