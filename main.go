package main

import (
	"github.com/cppla/yatube/config"
	"github.com/cppla/yatube/events"
	"github.com/cppla/yatube/routes"
	"github.com/cppla/yatube/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	db := config.InitDatabase(cfg)
	rc := utils.NewRedis(cfg)
	if rc != nil {
		defer rc.Close()
	}
	pub := events.New(cfg)
	defer pub.Close()

	r := routes.SetupRouter(routes.Deps{
		Config: cfg,
		DB:     db,
		Redis:  rc,
		Events: pub,
	})

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
