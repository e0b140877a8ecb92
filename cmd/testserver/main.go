// Command testserver runs a fake PrimeCRM API for local load tests.
//
// Usage:
//
//	testserver [flags]
//
// Flags:
//
//	-port       Port to listen on (default: 8080)
//	-host       Host to bind to (default: localhost)
//	-latency    Delay added to every API response (default: 0)
//	-fail-rate  Percentage of reads answered with 500 (default: 0)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"primeload/testserver"

	"github.com/sirupsen/logrus"
)

func main() {
	port := flag.Int("port", 8080, "port to listen on")
	host := flag.String("host", "localhost", "host to bind to")
	latency := flag.Duration("latency", 0, "delay added to every API response")
	failRate := flag.Int("fail-rate", 0, "percentage of reads answered with 500")
	flag.Parse()

	log := logrus.New()
	server := testserver.NewServer(testserver.Options{Latency: *latency, FailRate: *failRate})
	addr := fmt.Sprintf("%s:%d", *host, *port)

	fmt.Println("PrimeCRM Test Server")
	fmt.Println("====================")
	fmt.Printf("Listening on http://%s\n\n", addr)
	fmt.Println("Endpoints:")
	fmt.Println("  GET  /health                  - Health check")
	fmt.Println("  POST /api/auth/login          - Login (admin@example.com / admin123)")
	fmt.Println("  GET  /api/dashboard/stats     - Dashboard counters")
	fmt.Println("  GET  /api/analytics/revenue   - Revenue over time")
	fmt.Println("  GET  /api/analytics/pipeline  - Deals per stage")
	fmt.Println("  GET  /api/contacts            - Contacts (?search=firstName:John)")
	fmt.Println("  GET  /api/deals               - Deals")
	fmt.Println()

	srv := &http.Server{Addr: addr, Handler: server.Handler()}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Error("server failed")
		os.Exit(1)
	}
}
