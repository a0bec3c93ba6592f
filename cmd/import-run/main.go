package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mediavault/config"
	"mediavault/internal/repo"
	"mediavault/internal/service"
	"mediavault/internal/storage"
	"mediavault/internal/worker"
)

// import-run drains the pending import queue once and exits. Run it from
// cron or invoke it manually.
func main() {
	resetStale := flag.Duration("reset-stale", 0,
		"return IN_PROGRESS items older than this to PENDING before running (e.g. 2h); only use when no other worker is live")
	flag.Parse()

	config.InitConfig()
	repo.InitMysql()
	repo.InitRedis()
	storage.InitDriver()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *resetStale > 0 {
		n, err := service.ResetStuckImports(*resetStale)
		if err != nil {
			log.Fatalln("reset stale imports:", err)
		}
		log.Printf("reset %d stale imports to PENDING", n)
	}

	start := time.Now()
	res, err := worker.RunOnce(ctx)
	if err != nil && ctx.Err() == nil {
		log.Fatalln("import run:", err)
	}
	log.Printf("import run finished in %s: %d processed, %d ok, %d failed",
		time.Since(start).Round(time.Millisecond), res.Processed, res.Succeeded, res.Failed)
	if ctx.Err() != nil {
		log.Println("interrupted; remaining items stay PENDING")
	}
}
