package main

import (
	"MinWageDiD/src/config"
	"MinWageDiD/src/datasource/file"
	"MinWageDiD/src/storage"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron"
)

func main() {
	jsonFolder := "./config"
	jsonFile := "config.json"
	dataJsonFile := "dataconfig.json"
	cfg, dcfg, err := config.LoadConfig(jsonFolder, jsonFile, dataJsonFile)
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// 初始化日志系统
	logger, err := storage.NewLogger(cfg.LogName)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	logger.SetConsole(os.Stderr)

	p := newPipeline(cfg, dcfg, logger, os.Stdout)

	// 一次性运行，任何错误都以状态码1退出
	if !cfg.Watch && cfg.Schedule == "" {
		if err := p.Run(); err != nil {
			logger.Error(err.Error())
			logger.Close()
			os.Exit(1)
		}
		logger.Close()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(ctx, cancel, logger)

	if err := serve(ctx, cfg, p, logger); err != nil {
		logger.Error(err.Error())
		logger.Close()
		os.Exit(1)
	}
	logger.Info("服务已退出")
	logger.Close()
}

// serve 常驻模式：先算一次，再按定时任务和/或文件变化重新计算，直到 ctx 结束
func serve(ctx context.Context, cfg *config.Config, p *pipeline, logger *storage.Logger) error {
	if cfg.LogAddr != "" {
		go startWebUI(ctx, cfg.LogAddr, logger)
	}

	p.RunLogged()

	if cfg.Schedule != "" {
		c := cron.New()
		if err := c.AddFunc(cfg.Schedule, p.RunLogged); err != nil {
			return fmt.Errorf("创建定时任务失败: %w", err)
		}
		c.Start()
		defer c.Stop()
		logger.Info(fmt.Sprintf("定时任务已启动(%s)，按Ctrl+C退出", cfg.Schedule))
	}

	if cfg.Watch {
		monitor, err := file.NewFileMonitor(cfg.DataFile, time.Duration(cfg.WatchDebounce))
		if err != nil {
			return fmt.Errorf("监听数据文件失败: %w", err)
		}
		defer monitor.Close()

		logger.Info("开始监听数据文件: " + cfg.DataFile)
		return monitor.Watch(ctx, func(path string) {
			logger.Info("数据文件已更新: " + path)
			p.RunLogged()
		})
	}

	<-ctx.Done()
	return nil
}

// handleSignals SIGHUP 重新打开日志文件，SIGINT/SIGTERM 结束服务
func handleSignals(ctx context.Context, cancel context.CancelFunc, logger *storage.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	for {
		select {
		case sig := <-sigChan:
			if sig == syscall.SIGHUP {
				if err := logger.Reopen(""); err != nil {
					logger.Error("重新打开日志文件失败: " + err.Error())
					continue
				}
				logger.Info("收到 SIGHUP，日志文件已重新打开")
				continue
			}
			logger.Info("Received signal: " + sig.String() + ", shutting down...")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}
