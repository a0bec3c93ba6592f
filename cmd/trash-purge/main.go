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

// trash-purge permanently deletes trashed objects older than the retention
// window, then prunes stale transform cache entries.
func main() {
	dryRun := flag.Bool("dry-run", false, "list what would be purged without deleting anything")
	retention := flag.Int("retention-days", 0, "override TRASH_RETENTION_DAYS")
	flag.Parse()

	config.InitConfig()
	repo.InitMysql()
	repo.InitRedis()
	storage.InitDriver()

	days := config.AppConfig.TrashRetentionDays
	if *retention > 0 {
		days = *retention
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	expired, err := service.ListExpiredTrash(days)
	if err != nil {
		log.Fatalln("list expired trash:", err)
	}
	log.Printf("%d trashed objects older than %d days", len(expired), days)

	purged := 0
	for _, item := range expired {
		if ctx.Err() != nil {
			log.Println("interrupted; remaining items stay in the trash")
			break
		}
		if *dryRun {
			log.Printf("would purge object %d (%s, trashed %s)",
				item.ID, item.FilenameDisplay, item.TrashedAt.Format("2006-01-02"))
			continue
		}
		if err := service.PurgeTrash(ctx, []uint64{item.ID}); err != nil {
			log.Printf("purge object %d: %v", item.ID, err)
			continue
		}
		purged++
		log.Printf("purged object %d (%s)", item.ID, item.FilenameDisplay)
	}

	if !*dryRun {
		removed, err := storage.PruneCache(config.AppConfig.CdnCacheMaxAge)
		if err != nil {
			log.Println("prune cache:", err)
		} else if removed > 0 {
			log.Printf("pruned %d cache entries", removed)
		}
	}
	log.Printf("trash purge finished: %d purged", purged)
}
