package record

import (
	"slices"
	"sort"
)

const Unclassified = "Unclassified"

// SortByEngagement returns a copy ordered by engagement score, highest first.
// Records with equal scores keep their input order.
func SortByEngagement(records []Record) []Record {
	sorted := slices.Clone(records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EngagementScore() > sorted[j].EngagementScore()
	})
	return sorted
}

// Groups is an ordered index view. Keys iterate in first-appearance order.
type Groups struct {
	keys   []string
	groups map[string][]Record
}

func newGroups() *Groups {
	return &Groups{groups: make(map[string][]Record)}
}

func (g *Groups) add(key string, r Record) {
	if _, ok := g.groups[key]; !ok {
		g.keys = append(g.keys, key)
	}
	g.groups[key] = append(g.groups[key], r)
}

func (g *Groups) rank() {
	for key, records := range g.groups {
		g.groups[key] = SortByEngagement(records)
	}
}

func (g *Groups) Keys() []string {
	return slices.Clone(g.keys)
}

func (g *Groups) Get(key string) []Record {
	return g.groups[key]
}

func (g *Groups) Len() int {
	return len(g.keys)
}

// GroupByProduct places a record in every product group it is tagged with.
// Untagged records go to Unclassified.
func GroupByProduct(records []Record) *Groups {
	g := newGroups()
	for _, r := range records {
		if len(r.Tags) == 0 {
			g.add(Unclassified, r)
			continue
		}
		for _, tag := range r.Tags {
			g.add(tag, r)
		}
	}
	g.rank()
	return g
}

func GroupBySource(records []Record) *Groups {
	g := newGroups()
	for _, r := range records {
		g.add(string(r.Source), r)
	}
	g.rank()
	return g
}

func FilterKOL(records []Record) []Record {
	var kol []Record
	for _, r := range records {
		if r.IsKOL {
			kol = append(kol, r)
		}
	}
	return SortByEngagement(kol)
}

type ProductStats struct {
	Name              string
	Count             int
	AverageEngagement float64
}

type Stats struct {
	Total    int
	KOLCount int
	BySource map[string]int
	Products []ProductStats
}

// Summarize counts records per source and per product. Products are listed
// by mention count, highest first.
func Summarize(records []Record) Stats {
	stats := Stats{
		Total:    len(records),
		BySource: make(map[string]int),
	}

	byProduct := GroupByProduct(records)
	for _, r := range records {
		if r.IsKOL {
			stats.KOLCount++
		}
		stats.BySource[string(r.Source)]++
	}

	for _, name := range byProduct.Keys() {
		if name == Unclassified {
			continue
		}
		group := byProduct.Get(name)
		total := 0
		for _, r := range group {
			total += r.Engagement
		}
		stats.Products = append(stats.Products, ProductStats{
			Name:              name,
			Count:             len(group),
			AverageEngagement: float64(total) / float64(len(group)),
		})
	}
	sort.SliceStable(stats.Products, func(i, j int) bool {
		return stats.Products[i].Count > stats.Products[j].Count
	})

	return stats
}
