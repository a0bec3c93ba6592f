package worker

import (
	"context"
	"log"
	"os"

	"mediavault/config"
	"mediavault/internal/service"
	"mediavault/utils"

	"golang.org/x/time/rate"
)

// Result summarizes one worker pass over the import queue.
type Result struct {
	Processed int
	Succeeded int
	Failed    int
}

// RunOnce drains the pending import queue: claim, download, create, mark.
// Fetch pacing follows the configured rate limit so a large backlog cannot
// hammer source hosts. Returns when the queue is empty or ctx is done.
func RunOnce(ctx context.Context) (Result, error) {
	limiter := rate.NewLimiter(rate.Limit(config.AppConfig.ImportRate), config.AppConfig.ImportBurst)
	var res Result
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		item, err := service.ClaimNextImport()
		if err != nil {
			return res, err
		}
		if item == nil {
			return res, nil
		}
		if err := limiter.Wait(ctx); err != nil {
			return res, err
		}

		res.Processed++
		log.Printf("import %d: fetching %s", item.ID, item.SourceURL)
		obj, err := service.ProcessImport(ctx, item)
		if err != nil {
			res.Failed++
			log.Printf("import %d: failed: %v", item.ID, err)
			if ferr := service.FailImport(item.ID, err.Error()); ferr != nil {
				log.Printf("import %d: record failure: %v", item.ID, ferr)
			}
			notifyFailure(item.SourceURL, err.Error())
			continue
		}
		if err := service.CompleteImport(item.ID, obj.ID); err != nil {
			log.Printf("import %d: record completion: %v", item.ID, err)
			continue
		}
		res.Succeeded++
		log.Printf("import %d: done, object %d", item.ID, obj.ID)
	}
}

// notifyFailure emails the operator about a failed import. Best effort.
func notifyFailure(sourceURL, reason string) {
	if !config.AppConfig.ImportNotifyEmail {
		return
	}
	to := os.Getenv("IMPORT_NOTIFY_TO")
	if to == "" {
		return
	}
	if err := utils.SendImportFailureMail(to, sourceURL, reason); err != nil {
		log.Println("import failure mail:", err)
	}
}
