// Package tamssvc serves the stand-in catalog of the external TAMS asset system.
package tamssvc

import (
	"encoding/json"

	"github.com/pkg/errors"

	appfs "github.com/topsell/tams/fs"
)

var ErrNotFound = errors.New("Asset not found in TAMS system")

// Asset is an asset as described by TAMS.
type Asset struct {
	Code          string                 `json:"code"`
	Name          string                 `json:"name"`
	Category      string                 `json:"category"`
	Location      string                 `json:"location"`
	Status        string                 `json:"status"`
	PurchaseDate  string                 `json:"purchase_date"`
	Specification map[string]interface{} `json:"specification"`
}

// Catalog is a read-only code -> asset index. Codes match exactly.
type Catalog struct {
	assets map[string]Asset
}

func NewCatalog(assets ...Asset) *Catalog {
	c := &Catalog{assets: make(map[string]Asset, len(assets))}
	for _, a := range assets {
		c.assets[a.Code] = a
	}
	return c
}

// LoadCatalog reads the catalog shipped with the binary.
func LoadCatalog() (*Catalog, error) {
	raw, err := appfs.ReadData(appfs.TAMSAssetsFile)
	if err != nil {
		return nil, errors.Wrap(err, "reading TAMS catalog")
	}
	var assets []Asset
	if err = json.Unmarshal(raw, &assets); err != nil {
		return nil, errors.Wrap(err, "decoding TAMS catalog")
	}
	return NewCatalog(assets...), nil
}

func (c *Catalog) Lookup(code string) (Asset, error) {
	a, ok := c.assets[code]
	if !ok {
		return Asset{}, ErrNotFound
	}
	return a, nil
}

func (c *Catalog) Len() int { return len(c.assets) }
