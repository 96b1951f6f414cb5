package verification

import (
	"regexp"
	"strings"
)

var (
	lineSep = regexp.MustCompile(`\r?\n`)
	cellSep = regexp.MustCompile(`\t+`)
)

type Outlet struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

type Division struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Option is one entry of the outlet x division pick list.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// ParseTable splits tab-separated text into trimmed rows of trimmed cells.
// Blank lines are dropped and runs of tabs count as a single separator.
func ParseTable(raw string) [][]string {
	rows := make([][]string, 0)
	for _, line := range lineSep.Split(raw, -1) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		cells := cellSep.Split(line, -1)
		for i := range cells {
			cells[i] = strings.TrimSpace(cells[i])
		}
		rows = append(rows, cells)
	}
	return rows
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// dataRows drops the header row.
func dataRows(raw string) [][]string {
	rows := ParseTable(raw)
	if len(rows) == 0 {
		return rows
	}
	return rows[1:]
}

// LoadOutlets maps the rows of an "ID KODE NAMA" table. Incomplete rows are skipped.
func LoadOutlets(raw string) []Outlet {
	outlets := make([]Outlet, 0)
	for _, row := range dataRows(raw) {
		o := Outlet{ID: cell(row, 0), Code: cell(row, 1), Name: cell(row, 2)}
		if o.ID == "" || o.Code == "" || o.Name == "" {
			continue
		}
		outlets = append(outlets, o)
	}
	return outlets
}

// LoadDivisions maps the rows of an "ID NAMA" table. Incomplete rows are skipped.
func LoadDivisions(raw string) []Division {
	divisions := make([]Division, 0)
	for _, row := range dataRows(raw) {
		d := Division{ID: cell(row, 0), Name: cell(row, 1)}
		if d.ID == "" || d.Name == "" {
			continue
		}
		divisions = append(divisions, d)
	}
	return divisions
}

// Tables holds the reference data. It is read-only once built.
type Tables struct {
	Outlets   []Outlet
	Divisions []Division
}

func NewTables(outletsRaw, divisionsRaw string) *Tables {
	return &Tables{
		Outlets:   LoadOutlets(outletsRaw),
		Divisions: LoadDivisions(divisionsRaw),
	}
}

// Outlet returns the first outlet with the given id.
func (t *Tables) Outlet(id string) *Outlet {
	for _, o := range t.Outlets {
		if o.ID == id {
			return &o
		}
	}
	return nil
}

// Division returns the first division with the given id.
func (t *Tables) Division(id string) *Division {
	for _, d := range t.Divisions {
		if d.ID == id {
			return &d
		}
	}
	return nil
}

// Options lists every outlet x division pair, outlets first.
func (t *Tables) Options() []Option {
	opts := make([]Option, 0, len(t.Outlets)*len(t.Divisions))
	for _, o := range t.Outlets {
		for _, d := range t.Divisions {
			opts = append(opts, Option{
				Value: PairKey(o.ID, d.ID),
				Label: "ID " + o.ID + " " + d.ID + " " + o.Code + "_" + o.Name + "_" + d.Name,
			})
		}
	}
	return opts
}

// PairKey is the value of a pick list entry: "{outletId}:{divisionId}".
func PairKey(outletID, divisionID string) string {
	return outletID + ":" + divisionID
}

// SplitPairKey returns the outlet and division ids of a pick list value.
// Missing parts are returned empty.
func SplitPairKey(key string) (outletID, divisionID string) {
	parts := strings.Split(key, ":")
	return cell(parts, 0), cell(parts, 1)
}
