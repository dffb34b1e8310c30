package builder

import (
	"slices"
)

// Graph is the directed acyclic graph formed by Project.Links
type Graph struct {
	projects []Project
	index    map[string]int
	// libs holds every project some other project links against
	libs map[string]bool
}

// NewGraph validates the project set: names must be unique and non-empty, every
// link target must exist, and links must not form a cycle
func NewGraph(projects []Project) (*Graph, error) {
	g := &Graph{
		projects: slices.Clone(projects),
		index:    make(map[string]int, len(projects)),
		libs:     make(map[string]bool),
	}

	for i, p := range projects {
		if p.Name == "" {
			return nil, newError(KindConfiguration, "", "project #%d has no name", i+1)
		}
		if _, dup := g.index[p.Name]; dup {
			return nil, newError(KindConfiguration, p.Name, "project declared more than once")
		}
		g.index[p.Name] = i
	}

	for _, p := range projects {
		seen := make(map[string]bool, len(p.Links))
		for _, dep := range p.Links {
			if dep == p.Name {
				return nil, newError(KindConfiguration, p.Name, "project links against itself")
			}
			if _, ok := g.index[dep]; !ok {
				return nil, newError(KindConfiguration, p.Name, "links against unknown project %q", dep)
			}
			if seen[dep] {
				return nil, newError(KindConfiguration, p.Name, "links against %q more than once", dep)
			}
			seen[dep] = true
			g.libs[dep] = true
		}
	}

	if _, err := g.Order(); err != nil {
		return nil, err
	}
	return g, nil
}

// Project returns the project named name
func (g *Graph) Project(name string) (*Project, bool) {
	i, ok := g.index[name]
	if !ok {
		return nil, false
	}
	return &g.projects[i], true
}

// IsLibrary reports whether some project links against name
func (g *Graph) IsLibrary(name string) bool { return g.libs[name] }

// Order returns the projects so that every project comes after the projects it
// links against. Ties are broken by declaration order.
func (g *Graph) Order() ([]*Project, error) {
	dependents := make(map[string][]string, len(g.projects)) // project -> projects that link it
	inDegree := make(map[string]int, len(g.projects))        // project -> unbuilt link count

	for _, p := range g.projects {
		inDegree[p.Name] = len(p.Links)
		for _, dep := range p.Links {
			dependents[dep] = append(dependents[dep], p.Name)
		}
	}

	// ready holds declaration indexes of projects with no unmet links
	var ready []int
	for i, p := range g.projects {
		if inDegree[p.Name] == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]*Project, 0, len(g.projects))
	for len(ready) > 0 {
		slices.Sort(ready)
		i := ready[0]
		ready = ready[1:]
		p := &g.projects[i]
		order = append(order, p)

		for _, v := range dependents[p.Name] {
			inDegree[v]--
			if inDegree[v] == 0 {
				ready = append(ready, g.index[v])
			}
		}
	}

	if len(order) != len(g.projects) {
		var cycle []string
		for _, p := range g.projects {
			if inDegree[p.Name] > 0 {
				cycle = append(cycle, p.Name)
			}
		}
		return nil, newError(KindConfiguration, "", "link cycle detected involving projects: %v", cycle)
	}

	return order, nil
}
