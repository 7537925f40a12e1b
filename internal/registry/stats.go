package registry

import "sort"

const statsTopN = 5

// Stats summarizes a registry.
type Stats struct {
	Total         int            `json:"total"`
	Namespaces    int            `json:"namespaces"`
	Tags          int            `json:"tags"`
	ByNamespace   map[string]int `json:"by_namespace"`
	MostUsed      []Entry        `json:"most_used"`
	RecentlyAdded []Entry        `json:"recently_added"`
	TotalUseCount int            `json:"total_use_count"`
}

// Stats computes totals plus the five most used and five most recently
// registered commands. Commands never used are left out of MostUsed.
func (r *Registry) Stats() Stats {
	all := r.All()

	st := Stats{
		Total:       len(all),
		Tags:        len(r.tags),
		ByNamespace: make(map[string]int),
	}
	for _, e := range all {
		st.ByNamespace[e.Command.Namespace]++
		st.TotalUseCount += e.UseCount
	}
	st.Namespaces = len(r.ListNamespaces())

	var used []Entry
	for _, e := range all {
		if e.UseCount > 0 {
			used = append(used, e)
		}
	}
	sort.SliceStable(used, func(i, j int) bool {
		return used[i].UseCount > used[j].UseCount
	})
	st.MostUsed = truncate(used, statsTopN)

	recent := append([]Entry(nil), all...)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].RegisteredAt.After(recent[j].RegisteredAt)
	})
	st.RecentlyAdded = truncate(recent, statsTopN)

	return st
}

func truncate(entries []Entry, n int) []Entry {
	if len(entries) > n {
		return entries[:n]
	}
	return entries
}
