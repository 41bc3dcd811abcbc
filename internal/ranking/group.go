package ranking

import (
	"sort"

	"github.com/mauv0809/tankbot/internal/tank"
)

var typeOrder = map[tank.Type]int{
	tank.Heavy:  0,
	tank.Medium: 1,
	tank.Light:  2,
	tank.TD:     3,
}

// GroupRecent groups records by type (heavy, medium, light, td, then any
// other type by name) and within a type by tier descending. Records keep
// their input order inside a tier.
func GroupRecent(records []Record) []TypeGroup {
	byType := map[tank.Type]map[int][]Record{}
	for _, r := range records {
		if byType[r.Type] == nil {
			byType[r.Type] = map[int][]Record{}
		}
		byType[r.Type][r.Tier] = append(byType[r.Type][r.Tier], r)
	}

	types := make([]tank.Type, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		oi, iKnown := typeOrder[types[i]]
		oj, jKnown := typeOrder[types[j]]
		switch {
		case iKnown && jKnown:
			return oi < oj
		case iKnown != jKnown:
			return iKnown
		}
		return types[i] < types[j]
	})

	groups := make([]TypeGroup, 0, len(types))
	for _, t := range types {
		tiers := make([]int, 0, len(byType[t]))
		for tier := range byType[t] {
			tiers = append(tiers, tier)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(tiers)))

		g := TypeGroup{Type: t}
		for _, tier := range tiers {
			g.Tiers = append(g.Tiers, TierGroup{Tier: tier, Records: byType[t][tier]})
		}
		groups = append(groups, g)
	}
	return groups
}
