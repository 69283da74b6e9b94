package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"mahjongserver/common/config"
	"mahjongserver/common/log"
)

// Run builds the container from the already-loaded global config,
// starts both listeners, and blocks until ctx is cancelled or the
// process receives a termination signal, mirroring the teacher's
// per-service Run(ctx) entrypoint shape.
func Run(ctx context.Context) error {
	container, err := NewContainer(config.Conf)
	if err != nil {
		log.Fatal("app: container init failed: %v", err)
		return err
	}

	go func() {
		if err := container.HTTP.Start(); err != nil {
			log.Error("app: http server exited: %v", err)
		}
	}()
	go func() {
		if err := container.StartWS(); err != nil {
			log.Error("app: websocket server exited: %v", err)
		}
	}()

	stop := func() {
		log.Info("app: shutting down...")
		if err := container.Close(); err != nil {
			log.Warn("app: shutdown error: %v", err)
		} else {
			log.Info("app: shutdown complete")
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGHUP)
	for {
		select {
		case <-ctx.Done():
			stop()
			return nil
		case s := <-sigCh:
			switch s {
			case syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT:
				stop()
				log.Info("app: interrupted, stopping")
				return nil
			case syscall.SIGHUP:
				stop()
				log.Info("app: hangup received, stopping")
				return nil
			default:
				return nil
			}
		}
	}
}
