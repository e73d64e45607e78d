package main

import (
	"MinWageDiD/src/storage"
	"context"
	"errors"
	"fmt"
	"net/http"
)

// startWebUI 启动一个简单的Web界面来显示实时日志
// 参数:
//
//	ctx: 结束时关闭服务
//	addr: 监听地址
//	logger: 日志记录器实例，用于订阅日志消息
func startWebUI(ctx context.Context, addr string, logger *storage.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/logs", logStreamHandler(logger))

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	logger.Info("实时日志: http://" + addr + "/logs")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("日志服务启动失败: " + err.Error())
	}
}

// logStreamHandler 把订阅到的日志逐条写给客户端
func logStreamHandler(logger *storage.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		// 创建日志订阅通道
		logChan := logger.Subscribe()
		defer logger.Unsubscribe(logChan)

		flusher, _ := w.(http.Flusher)
		w.WriteHeader(http.StatusOK)
		if flusher != nil {
			flusher.Flush()
		}

		for {
			select {
			case msg, ok := <-logChan:
				if !ok {
					return
				}
				// 如果写入失败(如客户端断开连接)，则退出循环
				if _, err := fmt.Fprint(w, msg); err != nil {
					return
				}
				if flusher != nil {
					flusher.Flush()
				}
			case <-r.Context().Done():
				return
			}
		}
	}
}
