package schema

import (
	"fmt"
	"sort"
	"strings"
)

// SortTables orders table descriptors so every table appears after the tables
// its foreign keys reference (Kahn's algorithm). References to tables outside
// the given set are ignored. A dependency cycle is an error naming the tables
// left unordered.
func SortTables(tables []*Table) ([]*Table, error) {
	byName := make(map[string]*Table, len(tables))
	for _, t := range tables {
		byName[t.Name] = t
	}

	// indegree counts in-set dependencies; dependents is the reverse edge set.
	indegree := make(map[string]int, len(tables))
	dependents := make(map[string][]string, len(tables))
	for _, t := range tables {
		indegree[t.Name] += 0
		for _, col := range t.Columns {
			if col.Type != TypeForeignKey || col.RefTable == t.Name {
				continue
			}
			if _, ok := byName[col.RefTable]; !ok {
				continue
			}
			indegree[t.Name]++
			dependents[col.RefTable] = append(dependents[col.RefTable], t.Name)
		}
	}

	var ready []string
	for _, t := range tables {
		if indegree[t.Name] == 0 {
			ready = append(ready, t.Name)
		}
	}

	ordered := make([]*Table, 0, len(tables))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		ordered = append(ordered, byName[name])
		for _, dep := range dependents[name] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(ordered) != len(tables) {
		var stuck []string
		for name, n := range indegree {
			if n > 0 {
				stuck = append(stuck, name)
			}
		}
		sort.Strings(stuck)
		return nil, fmt.Errorf("foreign key dependency cycle between tables: %s", strings.Join(stuck, ", "))
	}
	return ordered, nil
}
