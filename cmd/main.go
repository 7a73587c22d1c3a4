package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"server-invest-app/config"
	"server-invest-app/internal/app/dgraph"
	"server-invest-app/internal/app/invest"
	"server-invest-app/internal/app/service"
	"server-invest-app/internal/db"
	"server-invest-app/internal/pkg/util"
)

func main() {
	flag.Parse()
	config.Init()
	if lvl, err := log.ParseLevel(config.Server.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	util.SetLocation(config.Server.Timezone)
	db.Init()

	if config.Referral.ChainSource == "dgraph" {
		if err := dgraph.Open(config.Dgraph.RPCAddr); err != nil {
			log.Fatalf("open d-graph failed: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := dgraph.EnsureSchema(ctx, dgraph.Dg)
		cancel()
		if err != nil {
			log.Fatalf("alter d-graph schema failed: %v", err)
		}
	}

	svc, err := invest.NewService()
	if err != nil {
		log.Fatalf("init invest service failed: %+v", err)
	}
	go service.RunHttp(svc)
	ticker := service.InvestTicker(svc)

	// kill (no param) default send syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	// kill -9 is syscall.SIGKILL but can't be catch, so don't need add it
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutdown Server ...")
	ticker.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := service.GetHttp().Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}
	log.Info("Server exiting")
}
