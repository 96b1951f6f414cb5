package main

import (
	"log"
	"os"

	"github.com/spf13/viper"

	"github.com/topsell/tams/client"
	"github.com/topsell/tams/core/verification"
	appfs "github.com/topsell/tams/fs"
	devicestore "github.com/topsell/tams/storage/device"
)

func main() {
	logger := log.New(os.Stderr, "SCANNER : ", 0)

	v := viper.New()
	v.SetEnvPrefix("tams")
	v.AutomaticEnv()
	v.SetDefault("api_url", "http://localhost:8000/api")

	path := v.GetString("device_storage")
	if path == "" {
		var err error
		if path, err = devicestore.DefaultPath(); err != nil {
			logger.Fatal(err)
		}
	}
	storage := openStorage(path, logger)

	tables, err := loadTables(v)
	if err != nil {
		logger.Fatal(err)
	}

	session := client.NewSession(storage)
	session.Initialize()

	cli := commandLine{
		api:     client.New(v.GetString("api_url"), session),
		session: session,
		tables:  tables,
		store:   verification.NewStorageStore(storage),
		in:      os.Stdin,
		out:     os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("error: %s", err)
		}
		os.Exit(1)
	}
}

func loadTables(v *viper.Viper) (*verification.Tables, error) {
	outlets, err := appfs.ReadReference(appfs.OutletsFile, v.GetString("outlets_path"))
	if err != nil {
		return nil, err
	}
	divisions, err := appfs.ReadReference(appfs.DivisionsFile, v.GetString("divisions_path"))
	if err != nil {
		return nil, err
	}
	return verification.NewTables(outlets, divisions), nil
}

// openStorage opens the device storage. Unreadable content is dropped with a warning.
func openStorage(path string, logger *log.Logger) *devicestore.Storage {
	storage := devicestore.Open(path)
	if err := storage.LoadErr(); err != nil {
		logger.Printf("warning: %v: starting from an empty storage", err)
	}
	return storage
}
