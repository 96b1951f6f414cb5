package verification

import "github.com/pkg/errors"

type Mode string

const (
	ModeSelect Mode = "select"
	ModeManual Mode = "manual"
)

var ErrInvalidMode = errors.New("invalid verification mode")

func (m Mode) Valid() bool {
	return m == ModeSelect || m == ModeManual
}

// Result is derived from the current state and never stored.
// ID is empty unless both Outlet and Division resolved.
type Result struct {
	Outlet   *Outlet   `json:"outlet"`
	Division *Division `json:"division"`
	ID       string    `json:"id"`
}

// BuildVerificationID returns "{outletId}-{divisionId}", or "" when either side is missing.
func BuildVerificationID(outlet *Outlet, division *Division) string {
	if outlet == nil || division == nil {
		return ""
	}
	return outlet.ID + "-" + division.ID
}

// State is the user input the result is derived from.
type State struct {
	Mode           Mode   `json:"mode"`
	OutletID       string `json:"outlet_id"`
	DivisionID     string `json:"division_id"`
	Pair           string `json:"pair"`
	ManualOutlet   string `json:"manual_outlet"`
	ManualDivision string `json:"manual_division"`
}

// Resolver derives the verification ID of a single logical flow (one screen, one request).
// Every recomputation saves the context; save failures are ignored.
type Resolver struct {
	tables *Tables
	store  ContextStore
	state  State
	result Result
}

// NewResolver restores the last context from store and computes the initial result.
func NewResolver(tables *Tables, store ContextStore) *Resolver {
	if store == nil {
		store = NopStore{}
	}
	r := &Resolver{
		tables: tables,
		store:  store,
		state:  restoreState(store),
	}
	r.recompute()
	return r
}

func restoreState(store ContextStore) State {
	st := State{Mode: ModeSelect}
	c, ok := store.Load()
	if !ok {
		return st
	}
	st.Mode = c.Mode
	st.OutletID = c.OutletID
	st.DivisionID = c.DivisionID
	if c.OutletID != "" && c.DivisionID != "" {
		st.Pair = PairKey(c.OutletID, c.DivisionID)
	}
	st.ManualOutlet = c.OutletCode
	if st.ManualOutlet == "" {
		st.ManualOutlet = c.OutletName
	}
	st.ManualDivision = c.DivisionName
	return st
}

func (r *Resolver) State() State   { return r.state }
func (r *Resolver) Result() Result { return r.result }

func (r *Resolver) SetMode(mode Mode) (Result, error) {
	if !mode.Valid() {
		return r.result, ErrInvalidMode
	}
	r.state.Mode = mode
	r.syncPair()
	r.recompute()
	return r.result, nil
}

// SelectPair applies a "{outletId}:{divisionId}" pick list value. Each non-empty part
// replaces the matching id; an empty key changes nothing.
func (r *Resolver) SelectPair(key string) Result {
	r.state.Pair = key
	if key != "" {
		outletID, divisionID := SplitPairKey(key)
		if outletID != "" {
			r.state.OutletID = outletID
		}
		if divisionID != "" {
			r.state.DivisionID = divisionID
		}
	}
	r.syncPair()
	r.recompute()
	return r.result
}

func (r *Resolver) SetManualOutlet(query string) Result {
	r.state.ManualOutlet = query
	r.recompute()
	return r.result
}

func (r *Resolver) SetManualDivision(query string) Result {
	r.state.ManualDivision = query
	r.recompute()
	return r.result
}

// syncPair keeps the pick list value in step with the selected ids while in select mode.
func (r *Resolver) syncPair() {
	if r.state.Mode == ModeSelect && r.state.OutletID != "" && r.state.DivisionID != "" {
		r.state.Pair = PairKey(r.state.OutletID, r.state.DivisionID)
	}
}

func (r *Resolver) recompute() {
	var (
		outlet   *Outlet
		division *Division
	)
	if r.state.Mode == ModeManual {
		outlet = MatchOutlet(r.tables.Outlets, r.state.ManualOutlet)
		division = MatchDivision(r.tables.Divisions, r.state.ManualDivision)
	} else {
		outlet = r.tables.Outlet(r.state.OutletID)
		division = r.tables.Division(r.state.DivisionID)
	}
	r.result = Result{Outlet: outlet, Division: division, ID: BuildVerificationID(outlet, division)}
	_ = r.store.Save(r.Context())
}

// Context is the snapshot persisted for the current state. In manual mode unresolved
// names keep the raw text that was typed.
func (r *Resolver) Context() Context {
	manual := r.state.Mode == ModeManual
	c := Context{Mode: r.state.Mode}
	if o := r.result.Outlet; o != nil {
		c.OutletID = o.ID
		c.OutletCode = o.Code
		c.OutletName = o.Name
	} else if manual {
		c.OutletName = r.state.ManualOutlet
	}
	if d := r.result.Division; d != nil {
		c.DivisionID = d.ID
		c.DivisionName = d.Name
	} else if manual {
		c.DivisionName = r.state.ManualDivision
	}
	return c
}
