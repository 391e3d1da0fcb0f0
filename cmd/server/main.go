package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/yourusername/mediadl/api"
	"github.com/yourusername/mediadl/api/handlers"
	"github.com/yourusername/mediadl/internal/app"
	"github.com/yourusername/mediadl/internal/domain"
	"github.com/yourusername/mediadl/internal/infrastructure"
	"github.com/yourusername/mediadl/pkg/logger"
)

var version = "dev"

const notificationBuffer = 64

var (
	serverMode = flag.Bool("server-mode", false, "Internal flag: run in server mode (called by daemon)")
	foreground = flag.Bool("foreground", false, "Run in the foreground instead of daemonizing")
	configPath = flag.String("config", "", "Path to config file")
)

func main() {
	flag.Parse()

	if !*serverMode && !*foreground {
		startAsDaemon()
		return
	}

	runServer()
}

// startAsDaemon re-executes the binary in server mode, detached from the terminal
func startAsDaemon() {
	execPath, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get executable path: %v\n", err)
		os.Exit(1)
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "/"
	}

	args := []string{"-server-mode"}
	if *configPath != "" {
		args = append(args, "-config", *configPath)
	}
	cmd := exec.Command(execPath, args...)
	cmd.Dir = cwd
	cmd.Env = os.Environ()
	detach(cmd)

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open %s: %v\n", os.DevNull, err)
		os.Exit(1)
	}
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start daemon: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Server started as daemon (PID: %d)\n", cmd.Process.Pid)
	os.Exit(0)
}

func runServer() {
	config, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	processLog, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
		Level:   config.Logging.Level,
		LogsDir: config.Download.LogsDir,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize category logs: %v\n", err)
		os.Exit(1)
	}
	defer multiLog.Close()

	logAdapter := logger.NewLoggerAdapter(processLog, multiLog)
	defer logAdapter.Sync()
	log := logAdapter.General()

	handlers.Version = version
	log.Info("Starting mediadl server",
		zap.String("version", version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("base_dir", config.Download.BaseDir),
		zap.Int("max_concurrent", config.Download.MaxConcurrent))

	osFs := afero.NewOsFs()

	library := infrastructure.NewLibrary(osFs, config.Download.BaseDir)
	if err := library.CreateFolders(); err != nil {
		log.Fatal("Failed to create download folders", zap.Error(err))
	}

	var (
		contentCache *infrastructure.ContentCache
		cache        domain.ContentCache
	)
	if config.Cache.Enabled {
		contentCache, err = infrastructure.NewContentCache(osFs, config.Cache.Dir, config.Cache.MaxAge, config.Cache.MaxSize, multiLog.Download())
		if err != nil {
			log.Fatal("Failed to initialize content cache", zap.Error(err))
		}
		// assigned only when enabled so the interface stays nil otherwise
		cache = contentCache
	}

	var history domain.HistoryRepository
	if config.History.Enabled {
		repo, err := infrastructure.NewSQLiteHistoryRepository(config.History.DatabasePath)
		if err != nil {
			log.Fatal("Failed to initialize history", zap.Error(err))
		}
		defer repo.Close()
		history = repo
	}

	extractor := infrastructure.NewYtdlpExtractor(config.Extractor, config.Download.LogsDir, multiLog)

	bus := app.NewEventBus()
	notifier := infrastructure.NewNotificationService(config.Notification, log)
	notifications, stopNotifications := bus.SubscribeChan(notificationBuffer)
	go notifier.Listen(notifications)

	queueMgr := app.NewQueueManager(extractor, cache, history, bus, &config.Download, multiLog)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var janitor *app.CacheJanitor
	if contentCache != nil && config.Cache.EvictInterval > 0 {
		janitor = app.NewCacheJanitor(contentCache, config.Cache.EvictInterval, multiLog)
		if err := janitor.Start(ctx); err != nil {
			log.Fatal("Failed to start cache janitor", zap.Error(err))
		}
	}

	router := api.SetupRouter(api.Dependencies{
		QueueManager: queueMgr,
		History:      history,
		Cache:        contentCache,
		Library:      library,
		LogReader:    logger.NewLogReader(osFs, config.Download.LogsDir),
		Logger:       logAdapter,
	})

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if janitor != nil {
		janitor.Stop()
	}

	if err := queueMgr.Stop(shutdownCtx); err != nil {
		log.Error("Queue manager did not stop cleanly", zap.Error(err))
	}
	stopNotifications()

	log.Info("Server exited")
}
