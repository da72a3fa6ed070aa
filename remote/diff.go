package remote

import "sort"

// FlagDiff compares two flag sets.
// - Added: present in curr, absent in prev
// - Removed: present in prev, absent in curr
// - Enabled: in both and flipped off->on
// - Disabled: in both and flipped on->off
type FlagDiff struct {
	Added    []string
	Removed  []string
	Enabled  []string
	Disabled []string
}

func (d FlagDiff) Empty() bool {
	return len(d.Added)+len(d.Removed)+len(d.Enabled)+len(d.Disabled) == 0
}

func DiffFlags(prev, curr map[string]bool) FlagDiff {
	var d FlagDiff
	for id, cv := range curr {
		pv, ok := prev[id]
		switch {
		case !ok:
			d.Added = append(d.Added, id)
		case !pv && cv:
			d.Enabled = append(d.Enabled, id)
		case pv && !cv:
			d.Disabled = append(d.Disabled, id)
		}
	}
	for id := range prev {
		if _, ok := curr[id]; !ok {
			d.Removed = append(d.Removed, id)
		}
	}

	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	sort.Strings(d.Enabled)
	sort.Strings(d.Disabled)
	return d
}
