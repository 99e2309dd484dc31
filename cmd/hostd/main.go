package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lc/hostd/internal/config"
	"github.com/lc/hostd/internal/hostcache"
	"github.com/lc/hostd/internal/log"
	"github.com/lc/hostd/internal/nameservice"
	"github.com/lc/hostd/internal/resolver"
	"github.com/lc/hostd/pkg/api"
)

func main() {
	// load config
	cfg, err := config.New().Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// build deps
	backend := nameservice.New(
		cfg.Resolver.LookupTimeout,
		nameservice.WithNameservers(cfg.Resolver.Nameservers),
		nameservice.WithRetries(cfg.Resolver.Retries),
	)
	cache := hostcache.New()
	res := resolver.New(backend, resolver.WithStore(cache))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// start the api over unix socket
	apiSrv := api.New(res, cache)
	sockPath := cfg.Socket.Path

	go func() {
		if err := apiSrv.ListenAndServe(sockPath); err != nil {
			log.Fatalf("api listen: %v", err)
		}
	}()
	log.Info("hostd started", "socket", sockPath)

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	<-sig
	log.Info("shutting down…")

	shutdownCtx, done := context.WithTimeout(ctx, 5*time.Second)
	defer done()

	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("api shutdown error: %v", err)
	}
}
