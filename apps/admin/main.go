package main

import (
	"log"
	"os"

	"github.com/topsell/tams/core"
	"github.com/topsell/tams/core/asset"
	"github.com/topsell/tams/core/user"
	emailsvc "github.com/topsell/tams/services/email"
	logsvc "github.com/topsell/tams/services/logger"
	"github.com/topsell/tams/storage/database"
	sqlxrepos "github.com/topsell/tams/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	defer logger.Close()

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal("setting up database", err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}
	defer func() { _ = db.Close() }()

	// start CLI
	usrRepo := sqlxrepos.NewUserRepository(db)
	cli := commandLine{
		db:       db,
		usrRepo:  usrRepo,
		usrSvc:   user.NewService(db, usrRepo, emailsvc.NewService(conf, logger), conf),
		assetSvc: asset.NewService(sqlxrepos.NewAssetRepository(db), nil),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
		}
		logger.Close()
		os.Exit(1)
	}
}
