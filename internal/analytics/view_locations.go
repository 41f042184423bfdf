package analytics

import "strings"

// LocationMember is one entity registered at a location.
type LocationMember struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	TotalAmount float64 `json:"total_amount"`
}

// LocationRow is an address shared by several entities.
type LocationRow struct {
	Location    string           `json:"location"`
	Members     []LocationMember `json:"members"`
	MemberCount int              `json:"member_count"`
	TotalAmount float64          `json:"total_amount"`
}

// Tuple returns location, distinct member count, the comma separated member
// names and the aggregate window total.
func (r LocationRow) Tuple() []any {
	names := make([]string, 0, len(r.Members))
	for _, m := range r.Members {
		names = append(names, m.Name)
	}
	return []any{r.Location, r.MemberCount, strings.Join(names, ", "), r.TotalAmount}
}

// Locations groups entities by address. Entities without an address share
// the p.UnknownLocation group. A location is kept only when it has at least
// p.LocationMinMembers distinct entity names. Members are ordered by their
// own window total and locations by their aggregate total, both descending.
func Locations(t *EntityTable, p Params) []LocationRow {
	unknown := p.UnknownLocation
	if unknown == "" {
		unknown = DefaultUnknownLocation
	}
	minMembers := p.LocationMinMembers
	if minMembers < 1 {
		minMembers = DefaultLocationMinMembers
	}

	type group struct {
		members []LocationMember
		names   map[string]struct{}
		total   float64
	}

	groups := make(map[string]*group)
	order := []string{}
	for _, e := range t.Entities() {
		location := strings.TrimSpace(e.Address)
		if location == "" {
			location = unknown
		}

		g, ok := groups[location]
		if !ok {
			g = &group{names: make(map[string]struct{})}
			groups[location] = g
			order = append(order, location)
		}

		total := e.TotalAmount(t.Years)
		g.members = append(g.members, LocationMember{Key: e.Key, Name: e.Name, TotalAmount: total})
		g.names[e.Name] = struct{}{}
		g.total += total
	}

	rows := []LocationRow{}
	for _, location := range order {
		g := groups[location]
		if len(g.names) < minMembers {
			continue
		}

		sortDesc(g.members,
			func(m LocationMember) float64 { return m.TotalAmount },
			func(m LocationMember) string { return m.Name },
			func(m LocationMember) string { return m.Key },
		)
		rows = append(rows, LocationRow{
			Location:    location,
			Members:     g.members,
			MemberCount: len(g.names),
			TotalAmount: g.total,
		})
	}

	sortDesc(rows,
		func(r LocationRow) float64 { return r.TotalAmount },
		func(r LocationRow) string { return r.Location },
		func(r LocationRow) string { return r.Location },
	)
	return rows
}
