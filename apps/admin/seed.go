package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/topsell/tams/core/asset"
	appfs "github.com/topsell/tams/fs"
)

func (cli *commandLine) seed(file string) error {
	var (
		raw []byte
		err error
	)
	if file != "" {
		raw, err = os.ReadFile(file)
	} else {
		raw, err = appfs.ReadData(appfs.SampleAssetsFile)
	}
	if err != nil {
		return errors.Wrap(err, "reading samples")
	}

	var samples []asset.Asset
	if err = json.Unmarshal(raw, &samples); err != nil {
		return errors.Wrap(err, "decoding samples")
	}

	n, err := cli.assetSvc.Seed(context.Background(), samples)
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Println("assets already present, nothing to seed")
		return nil
	}
	fmt.Printf("seeded %d assets\n", n)
	return nil
}
