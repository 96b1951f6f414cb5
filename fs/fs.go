// Package appfs embeds the static files shipped with the binaries:
// database migrations, reference & sample data and email templates.
package appfs

import (
	"embed"
	"os"
	"path"
)

//go:embed migrations/*.sql data/*.tsv data/*.json templates/email/*
var FS embed.FS

const (
	OutletsFile   = "outlets.tsv"
	DivisionsFile = "divisions.tsv"

	SampleAssetsFile = "sample_assets.json"
	TAMSAssetsFile   = "tams_assets.json"
)

// ReadData returns the content of an embedded file under data/.
func ReadData(name string) ([]byte, error) {
	return FS.ReadFile(path.Join("data", name))
}

// ReadReference returns the content of an embedded reference dataset, or of override when set.
func ReadReference(name, override string) (string, error) {
	if override != "" {
		b, err := os.ReadFile(override)
		return string(b), err
	}
	b, err := ReadData(name)
	return string(b), err
}
