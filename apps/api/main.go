package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/topsell/tams/apps/api/echo"
	"github.com/topsell/tams/core"
	"github.com/topsell/tams/core/asset"
	"github.com/topsell/tams/core/user"
	"github.com/topsell/tams/core/verification"
	appfs "github.com/topsell/tams/fs"
	emailsvc "github.com/topsell/tams/services/email"
	logsvc "github.com/topsell/tams/services/logger"
	tamssvc "github.com/topsell/tams/services/tams"
	cachestore "github.com/topsell/tams/storage/cache"
	"github.com/topsell/tams/storage/database"
	sqlxrepos "github.com/topsell/tams/storage/database/sqlx"
	photostore "github.com/topsell/tams/storage/photos"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	defer logger.Close()

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug && conf.RollbarToken != "")

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	ctx := context.Background()

	// set up redis (optional)
	rdb, err := cachestore.Open(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("connecting to redis: %v", err), err)
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	} else {
		logger.Info("redis not configured: verification contexts are kept in memory")
	}

	// set up reference data
	tables, err := loadTables(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("loading reference data: %v", err), err)
	}
	catalog, err := tamssvc.LoadCatalog()
	if err != nil {
		logger.Fatal(fmt.Sprintf("loading TAMS catalog: %v", err), err)
	}

	// set up services
	mailSvc := emailsvc.NewService(conf, logger)
	usrSvc := user.NewService(db, sqlxrepos.NewUserRepository(db), mailSvc, conf)

	photos, err := photostore.New(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up photo storage: %v", err), err)
	}
	assetSvc := asset.NewService(sqlxrepos.NewAssetRepository(db), photos)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	core.ParseEmailTemplates(appfs.FS, conf.Debug, logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewInt("outlets").Set(int64(len(tables.Outlets)))
	expvar.NewInt("divisions").Set(int64(len(tables.Divisions)))

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			UserSvc:       usrSvc,
			AssetSvc:      assetSvc,
			Tables:        tables,
			ContextStores: cachestore.NewStores(rdb, conf.Redis.ContextTTL),
			Catalog:       catalog,
			Validate:      validate,
			Translator:    translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func loadTables(conf *core.Config) (*verification.Tables, error) {
	outlets, err := appfs.ReadReference(appfs.OutletsFile, conf.Reference.OutletsPath)
	if err != nil {
		return nil, err
	}
	divisions, err := appfs.ReadReference(appfs.DivisionsFile, conf.Reference.DivisionsPath)
	if err != nil {
		return nil, err
	}
	return verification.NewTables(outlets, divisions), nil
}
