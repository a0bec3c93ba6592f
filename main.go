package main

import (
	"mediavault/config"
	"mediavault/internal/repo"
	"mediavault/internal/service"
	"mediavault/internal/storage"
	"mediavault/router"
)

// main initializes services and starts the HTTP server.
func main() {
	config.InitConfig()
	repo.InitMysql()
	repo.InitRedis()
	storage.InitDriver()

	// imports hold object references and count as usages
	service.RegisterMonitor(service.TableMonitor{
		MonitorName: "imports",
		Table:       "cdn_import",
		Column:      "object_id",
	})

	router := router.InitRouter()
	router.Run(":8000")
}
