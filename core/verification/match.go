package verification

import "strings"

// candidate keys tried in order; the first key matching any record wins.
var (
	outletKeys = []func(Outlet) string{
		func(o Outlet) string { return o.Code },
		func(o Outlet) string { return o.Name },
		func(o Outlet) string { return o.Code + " " + o.Name },
		func(o Outlet) string { return o.Code + " - " + o.Name },
		func(o Outlet) string { return o.Code + "-" + o.Name },
	}

	divisionKeys = []func(Division) string{
		func(d Division) string { return d.ID },
		func(d Division) string { return d.Name },
		func(d Division) string { return d.ID + " " + d.Name },
		func(d Division) string { return d.ID + " - " + d.Name },
		func(d Division) string { return d.ID + "-" + d.Name },
	}
)

func matchFirst[T any](records []T, query string, keys []func(T) string) *T {
	q := strings.ToLower(query)
	if q == "" {
		return nil
	}
	for _, key := range keys {
		for _, rec := range records {
			if strings.ToLower(key(rec)) == q {
				return &rec
			}
		}
	}
	return nil
}

// MatchOutlet resolves free text to an outlet, case-insensitively, trying
// code, name, "code name", "code - name" and "code-name" in that order.
func MatchOutlet(outlets []Outlet, query string) *Outlet {
	return matchFirst(outlets, query, outletKeys)
}

// MatchDivision resolves free text to a division, case-insensitively, trying
// id, name, "id name", "id - name" and "id-name" in that order.
func MatchDivision(divisions []Division, query string) *Division {
	return matchFirst(divisions, query, divisionKeys)
}
