package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/joseph-ayodele/groceries-db/internal/app"
	"github.com/joseph-ayodele/groceries-db/internal/common"
	"github.com/joseph-ayodele/groceries-db/internal/server"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()
	cfg := common.LoadConfig()

	fs := ff.NewFlagSet("groceriesd")
	var (
		addr     = fs.StringLong("addr", cfg.Server.GRPCAddr, "gRPC listen address")
		inboxDir = fs.StringLong("inbox", cfg.Inbox.Dir, "receipt inbox directory to watch (optional)")
		inboxFor = fs.StringLong("inbox-owner", cfg.Inbox.OwnerID, "owner id for receipts found in the inbox")
	)
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("GROCERIES")); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	cfg.Server.GRPCAddr, cfg.Inbox.Dir, cfg.Inbox.OwnerID = *addr, *inboxDir, *inboxFor
	if !strings.Contains(cfg.Server.GRPCAddr, ":") {
		cfg.Server.GRPCAddr = ":" + cfg.Server.GRPCAddr
	}

	logger := common.NewLogger(os.Stdout, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := server.PingDB(ctx, a.DB, logger, 5*time.Second); err != nil {
		os.Exit(1)
	}

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	grpcServer, hs := server.New(a.ServerDeps(), logger)

	var inbox interface{ Shutdown(context.Context) }
	if cfg.Inbox.Dir != "" {
		q, err := a.StartInbox(ctx, cfg.Inbox.Dir, cfg.Inbox.OwnerID)
		if err != nil {
			logger.Error("failed to start inbox", "dir", cfg.Inbox.Dir, "error", err)
			os.Exit(1)
		}
		inbox = q
	}

	logger.Info("groceries-db listening", "addr", cfg.Server.GRPCAddr, "db", a.DB.Dialect())
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	hs.Shutdown()
	if inbox != nil {
		sctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		inbox.Shutdown(sctx)
		cancel()
	}
	stopped := make(chan struct{})
	go func() { grpcServer.GracefulStop(); close(stopped) }()
	select {
	case <-stopped:
	case <-time.After(10 * time.Second):
		logger.Warn("graceful stop timed out, forcing")
		grpcServer.Stop()
	}
}
