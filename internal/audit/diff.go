package audit

import (
	"reflect"
	"sort"
)

// ChangedFields lists, sorted, every key whose value differs between the two
// snapshots. A key present on only one side counts as changed.
func ChangedFields(before, after map[string]any) []string {
	changed := []string{}
	for k, b := range before {
		a, ok := after[k]
		if !ok || !reflect.DeepEqual(a, b) {
			changed = append(changed, k)
		}
	}
	for k := range after {
		if _, ok := before[k]; !ok {
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)
	return changed
}
