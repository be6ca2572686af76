package directive

import (
	"sort"
	"sync"
)

// Bucket groups the kinds that share a stage number. Kinds inside a bucket are
// independent of each other and may be applied in any relative order.
type Bucket struct {
	Stage int
	Kinds []Kind
}

// ProcessingOrder is the deterministic execution order computed for one set of
// requested kinds. It is never mutated after construction.
type ProcessingOrder struct {
	kinds   []Kind
	buckets []Bucket
	graph   map[Kind][]Kind
}

// DetermineOrder sorts the requested kinds by stage, breaking ties with the
// catalog declaration order. Duplicates collapse; an empty request yields an
// empty order. A kind's stage is intrinsic to the catalog and does not depend
// on which other kinds were requested.
func DetermineOrder(kinds ...Kind) (ProcessingOrder, error) {
	set, err := kindSet(kinds)
	if err != nil {
		return ProcessingOrder{}, err
	}
	return orderFromSet(set), nil
}

// VerifyAcyclic walks the dependency sub-graph induced by the requested kinds
// and reports a DependencyViolation when a dependency does not sit on a
// strictly lower stage than its dependent. Against the shipped catalog this
// never fires; a violation means the catalog itself is broken.
func VerifyAcyclic(kinds ...Kind) error {
	set, err := kindSet(kinds)
	if err != nil {
		return err
	}
	for _, kind := range ordered {
		if set&bit(kind) == 0 {
			continue
		}
		for _, dep := range ordered {
			if dep == kind || set&bit(dep) == 0 || !kind.DependsOn(dep) {
				continue
			}
			if dep.Stage() >= kind.Stage() {
				return &DependencyViolation{
					Kind:            kind,
					Dependency:      dep,
					KindStage:       kind.Stage(),
					DependencyStage: dep.Stage(),
				}
			}
		}
	}
	return nil
}

func kindSet(kinds []Kind) (uint32, error) {
	var set uint32
	for _, kind := range kinds {
		if !kind.Valid() {
			return 0, &ConfigurationError{
				Code:    CodeUnsupportedDirective,
				Kind:    kind,
				Name:    kind.String(),
				Message: "directive is not part of the catalog",
			}
		}
		set |= bit(kind)
	}
	return set, nil
}

func orderFromSet(set uint32) ProcessingOrder {
	if set == 0 {
		return ProcessingOrder{}
	}

	kinds := make([]Kind, 0, len(ordered))
	for _, kind := range ordered {
		if set&bit(kind) != 0 {
			kinds = append(kinds, kind)
		}
	}
	sort.SliceStable(kinds, func(i, j int) bool {
		si, sj := kinds[i].Stage(), kinds[j].Stage()
		if si != sj {
			return si < sj
		}
		return declarationIndex(kinds[i]) < declarationIndex(kinds[j])
	})

	var buckets []Bucket
	for _, kind := range kinds {
		stage := kind.Stage()
		if n := len(buckets); n > 0 && buckets[n-1].Stage == stage {
			buckets[n-1].Kinds = append(buckets[n-1].Kinds, kind)
			continue
		}
		buckets = append(buckets, Bucket{Stage: stage, Kinds: []Kind{kind}})
	}

	graph := make(map[Kind][]Kind, len(kinds))
	for _, kind := range kinds {
		graph[kind] = requestedDependencies(kind, set)
	}

	return ProcessingOrder{kinds: kinds, buckets: buckets, graph: graph}
}

// requestedDependencies returns the nearest requested ancestors of kind: edges
// that pass through kinds absent from the request are collapsed onto the first
// requested kind found along each path.
func requestedDependencies(kind Kind, set uint32) []Kind {
	var found uint32
	var visit func(k Kind)
	visited := make(map[Kind]bool)
	visit = func(k Kind) {
		for _, dep := range catalog[k].deps {
			if visited[dep] {
				continue
			}
			visited[dep] = true
			if set&bit(dep) != 0 {
				found |= bit(dep)
				continue
			}
			visit(dep)
		}
	}
	visit(kind)

	var deps []Kind
	for _, k := range ordered {
		if found&bit(k) != 0 {
			deps = append(deps, k)
		}
	}
	return deps
}

// Kinds returns the ordered kinds.
func (o ProcessingOrder) Kinds() []Kind {
	return append([]Kind(nil), o.kinds...)
}

// Len returns the number of kinds in the order.
func (o ProcessingOrder) Len() int {
	return len(o.kinds)
}

// Empty reports whether the order holds no kinds.
func (o ProcessingOrder) Empty() bool {
	return len(o.kinds) == 0
}

// Contains reports whether kind is part of the order.
func (o ProcessingOrder) Contains(kind Kind) bool {
	for _, k := range o.kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Buckets returns the stage buckets in ascending stage order.
func (o ProcessingOrder) Buckets() []Bucket {
	out := make([]Bucket, len(o.buckets))
	for idx, bucket := range o.buckets {
		out[idx] = Bucket{Stage: bucket.Stage, Kinds: append([]Kind(nil), bucket.Kinds...)}
	}
	return out
}

// Graph returns the dependency sub-graph restricted to the requested kinds.
func (o ProcessingOrder) Graph() map[Kind][]Kind {
	out := make(map[Kind][]Kind, len(o.graph))
	for kind, deps := range o.graph {
		out[kind] = append([]Kind(nil), deps...)
	}
	return out
}

// Position returns the index of kind in the order, or -1.
func (o ProcessingOrder) Position(kind Kind) int {
	for idx, k := range o.kinds {
		if k == kind {
			return idx
		}
	}
	return -1
}

// OrderCache memoises processing orders per distinct requested kind set. It is
// safe for concurrent use.
type OrderCache struct {
	mu     sync.RWMutex
	orders map[uint32]ProcessingOrder
}

// NewOrderCache creates an empty cache.
func NewOrderCache() *OrderCache {
	return &OrderCache{orders: make(map[uint32]ProcessingOrder)}
}

// Order returns the cached order for the requested kinds, computing it on the
// first request.
func (c *OrderCache) Order(kinds ...Kind) (ProcessingOrder, error) {
	set, err := kindSet(kinds)
	if err != nil {
		return ProcessingOrder{}, err
	}

	c.mu.RLock()
	order, ok := c.orders[set]
	c.mu.RUnlock()
	if ok {
		return order, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.orders == nil {
		c.orders = make(map[uint32]ProcessingOrder)
	}
	if order, ok := c.orders[set]; ok {
		return order, nil
	}
	order = orderFromSet(set)
	c.orders[set] = order
	return order, nil
}

// Len reports how many distinct kind sets are cached.
func (c *OrderCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.orders)
}
