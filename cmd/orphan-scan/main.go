package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"mediavault/config"
	"mediavault/internal/repo"
	"mediavault/internal/service"
	"mediavault/internal/storage"
)

// orphan-scan walks every live object and writes the ids that no monitor
// references to a report file, one id per line. Nothing is deleted;
// operators review the report and purge by hand.
func main() {
	out := flag.String("out", "unused-objects.txt", "report output path")
	force := flag.Bool("force", false, "break a stale run lock before starting")
	flag.Parse()

	config.InitConfig()
	repo.InitMysql()
	repo.InitRedis()
	storage.InitDriver()

	service.RegisterMonitor(service.TableMonitor{
		MonitorName: "imports",
		Table:       "cdn_import",
		Column:      "object_id",
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	found, err := service.ScanUnused(ctx, *out, *force)
	if err != nil {
		log.Fatalln("scan unused:", err)
	}
	log.Printf("scan finished: %d unused objects written to %s", found, *out)
}
