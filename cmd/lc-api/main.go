package main

import (
	"context"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Go2LineCount/internal/config"
	"Go2LineCount/internal/engine/manager"
	"Go2LineCount/internal/query"

	_ "go.uber.org/automaxprocs"
	"google.golang.org/grpc"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	input := flag.String("input", "", "file to count at startup (overrides counter.input)")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *input != "" {
		cfg.Counter.Input = *input
	}

	querier, err := newQuerier(cfg)
	if err != nil {
		log.Fatalf("Failed to create querier: %v", err)
	}

	// Run gRPC server
	grpcServer := grpc.NewServer()
	query.RegisterQueryServiceServer(grpcServer, query.NewServer(querier))

	lis, err := net.Listen("tcp", cfg.API.GRPCListenAddr)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", cfg.API.GRPCListenAddr, err)
	}
	go func() {
		log.Printf("gRPC API server starting on %s", cfg.API.GRPCListenAddr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("Failed to serve gRPC: %v", err)
		}
	}()

	// Run HTTP server
	httpServer := &http.Server{
		Addr:              cfg.API.ListenAddr,
		Handler:           query.NewHTTPHandler(querier),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("HTTP API server starting on %s", cfg.API.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Servers shutting down...")

	grpcServer.GracefulStop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("All servers exited.")
}

// newQuerier counts the configured input into a frozen table. Without an
// input it falls back to the latest report stored by an enabled ClickHouse writer.
func newQuerier(cfg *config.Config) (query.Querier, error) {
	if cfg.Counter.Input == "" {
		for _, writerDef := range cfg.Writers {
			if writerDef.Enabled && writerDef.Type == "clickhouse" {
				log.Println("No input configured, serving the latest ClickHouse report.")
				return query.NewClickHouseQuerier(writerDef.ClickHouse, cfg.Counter.RunName)
			}
		}
	}

	mgr, err := manager.NewManager(cfg, nil)
	if err != nil {
		return nil, err
	}
	in, err := manager.OpenInput(cfg.Counter.Input)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	table, err := mgr.Count(in)
	if err != nil {
		return nil, err
	}
	return query.NewTableQuerier(table, cfg.Counter.NumWorkers), nil
}
