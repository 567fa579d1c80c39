package layout

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"erd/diagram"
	"erd/geometry"
	"erd/obstacles"
)

// edge is a relationship whose endpoints are two distinct known entities.
type edge struct {
	from, to string
}

// candidate is one non-overlapping spiral probe.
type candidate struct {
	pos       geometry.Point // top-left
	center    geometry.Point
	dist      float64
	crossings int
}

// sequentialPass holds the state of a single LayoutEntities call.
type sequentialPass struct {
	cfg     Config
	center  geometry.Point
	half    geometry.Point
	adj     map[string][]string
	edges   []edge
	touches map[string][]int // entity id -> indexes into edges
	centers map[string]geometry.Point
	placed  *obstacles.Set
}

// LayoutEntities places every entity without overlaps, most-connected first,
// preferring compact placements and breaking near-ties by the number of
// relationship line crossings. It is deterministic for a given input order
// and viewport center.
func (e *Engine) LayoutEntities(entities []diagram.Entity, relationships []diagram.Relationship, center geometry.Point) Positions {
	defer e.observe(StrategySequential, time.Now())

	result := make(Positions, len(entities))
	if len(entities) == 0 {
		return result
	}

	center = sanitizeCenter(center)
	ids := uniqueEntityIDs(entities)
	edges := validEdges(ids, relationships)

	s := &sequentialPass{
		cfg:     e.cfg,
		center:  center,
		half:    e.cfg.EntitySize.Half(),
		adj:     buildAdjacency(ids, edges),
		edges:   edges,
		touches: make(map[string][]int),
		centers: make(map[string]geometry.Point, len(ids)),
		placed:  obstacles.NewSet(len(ids)),
	}
	for i, ed := range edges {
		s.touches[ed.from] = append(s.touches[ed.from], i)
		s.touches[ed.to] = append(s.touches[ed.to], i)
	}

	order := orderByDegree(ids, s.adj)
	e.logger.Debug("sequential layout started",
		zap.Int("entities", len(order)),
		zap.Int("relationships", len(edges)))

	for i, id := range order {
		var pos geometry.Point
		if i == 0 {
			pos = center.Sub(s.half)
		} else {
			pos = e.placeNext(s, id)
		}
		s.commit(id, pos)
		result[id] = pos
	}

	return result
}

// placeNext finds the position for one entity after the first.
func (e *Engine) placeNext(s *sequentialPass, id string) geometry.Point {
	target := s.target(id)
	cands := s.spiral(target)
	e.recorder.ObserveCandidates(len(cands))

	if len(cands) == 0 {
		e.recorder.CountFallback(FallbackEntityFar)
		pos := s.farPosition()
		e.logger.Warn("no free spiral position, placing entity beyond the cluster",
			zap.String("entity", id),
			zap.Float64("x", pos.X),
			zap.Float64("y", pos.Y))
		return pos
	}

	best := s.choose(id, cands)
	if s.placed.Overlaps(geometry.RectAt(best.pos, s.cfg.EntitySize), s.cfg.Entity.Spacing) {
		e.recorder.CountFallback(FallbackEntityFar)
		e.logger.Warn("chosen position failed re-check", zap.String("entity", id))
		return s.farPosition()
	}

	e.logger.Debug("placed entity",
		zap.String("entity", id),
		zap.Int("candidates", len(cands)),
		zap.Float64("distance", best.dist),
		zap.Int("crossings", best.crossings))
	return best.pos
}

func (s *sequentialPass) commit(id string, pos geometry.Point) {
	s.placed.Add(diagram.Node{ID: id, Kind: diagram.KindEntity, Position: pos, Size: s.cfg.EntitySize})
	s.centers[id] = pos.Add(s.half)
}

// target is the centroid of the entity's placed neighbours, or the viewport
// center when none are placed yet.
func (s *sequentialPass) target(id string) geometry.Point {
	var sum geometry.Point
	n := 0
	for _, nb := range s.adj[id] {
		if c, ok := s.centers[nb]; ok {
			sum = sum.Add(c)
			n++
		}
	}
	if n == 0 {
		return s.center
	}
	return sum.Scale(1 / float64(n))
}

// spiral collects non-overlapping candidates around target. The radius grows
// continuously by RadiusStep per revolution.
func (s *sequentialPass) spiral(target geometry.Point) []candidate {
	ec := s.cfg.Entity
	stepsPerRev := 360 / ec.AngleStep
	maxCands := max(ec.MaxCandidates, 1)
	cands := make([]candidate, 0, maxCands)

	for attempt := 0; attempt < ec.MaxAttempts && len(cands) < maxCands; attempt++ {
		angle := float64(attempt) * ec.AngleStep
		radius := ec.InitialRadius + ec.RadiusStep*float64(attempt)/stepsPerRev
		c := geometry.Polar(target, radius, angle)
		pos := c.Sub(s.half)
		if s.placed.Overlaps(geometry.RectAt(pos, s.cfg.EntitySize), ec.Spacing) {
			continue
		}
		cands = append(cands, candidate{pos: pos, center: c, dist: geometry.Distance(c, target)})
	}

	return cands
}

// choose picks the closest candidate, using crossing count to break ties
// among candidates within DistanceTolerance of the closest one. Compactness
// always takes precedence over crossings.
func (s *sequentialPass) choose(id string, cands []candidate) candidate {
	minDist := cands[0].dist
	for _, c := range cands[1:] {
		minDist = min(minDist, c.dist)
	}

	lines := s.scoringLines(id)
	best := -1
	for i := range cands {
		if cands[i].dist > minDist+s.cfg.Entity.DistanceTolerance {
			continue
		}
		cands[i].crossings = lines.crossings(cands[i].center)
		if best < 0 ||
			cands[i].crossings < cands[best].crossings ||
			(cands[i].crossings == cands[best].crossings && cands[i].dist < cands[best].dist) {
			best = i
		}
	}
	return cands[best]
}

// crossingLines holds what crossing scoring needs for one entity: the centers
// of its placed partners and the lines of every other resolved relationship.
// Both are fixed while the entity's candidates are scored.
type crossingLines struct {
	partners []geometry.Point
	resolved [][2]geometry.Point
}

// scoringLines collects the lines crossings are counted against. Resolved
// relationships not touching id contribute a line from each endpoint center
// to the midpoint of the two centers, standing in for the marker that is
// placed later.
func (s *sequentialPass) scoringLines(id string) crossingLines {
	var l crossingLines
	for _, idx := range s.touches[id] {
		ed := s.edges[idx]
		other := ed.to
		if other == id {
			other = ed.from
		}
		if pc, ok := s.centers[other]; ok {
			l.partners = append(l.partners, pc)
		}
	}
	if len(l.partners) == 0 {
		return l
	}

	for _, ed := range s.edges {
		if ed.from == id || ed.to == id {
			continue
		}
		a, okA := s.centers[ed.from]
		b, okB := s.centers[ed.to]
		if !okA || !okB {
			continue
		}
		m := geometry.Midpoint(a, b)
		l.resolved = append(l.resolved, [2]geometry.Point{a, m}, [2]geometry.Point{b, m})
	}
	return l
}

// crossings counts intersections between the lines an entity centered at c
// would draw, from c to the midpoint with each placed partner, and the
// resolved relationship lines.
func (l crossingLines) crossings(c geometry.Point) int {
	count := 0
	for _, pc := range l.partners {
		m := geometry.Midpoint(c, pc)
		for _, seg := range l.resolved {
			if geometry.SegmentsIntersect(c, m, seg[0], seg[1]) {
				count++
			}
		}
	}
	return count
}

// farPosition returns a deterministic spot to the right of everything placed.
func (s *sequentialPass) farPosition() geometry.Point {
	bounds, ok := s.placed.Bounds()
	if !ok {
		return s.center.Sub(s.half)
	}
	return geometry.Point{
		X: bounds.Max().X + 2*s.cfg.Entity.Spacing + 1,
		Y: s.center.Y - s.half.Y,
	}
}

// uniqueEntityIDs returns entity ids in input order, dropping repeats.
func uniqueEntityIDs(entities []diagram.Entity) []string {
	seen := make(map[string]bool, len(entities))
	ids := make([]string, 0, len(entities))
	for _, ent := range entities {
		if seen[ent.ID] {
			continue
		}
		seen[ent.ID] = true
		ids = append(ids, ent.ID)
	}
	return ids
}

// validEdges drops relationships to unknown entities and self-references.
func validEdges(ids []string, relationships []diagram.Relationship) []edge {
	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}

	edges := make([]edge, 0, len(relationships))
	for _, r := range relationships {
		if r.IsSelfReferencing() || !known[r.FromEntityID] || !known[r.ToEntityID] {
			continue
		}
		edges = append(edges, edge{from: r.FromEntityID, to: r.ToEntityID})
	}
	return edges
}

// buildAdjacency builds the undirected neighbour lists in first-seen order.
func buildAdjacency(ids []string, edges []edge) map[string][]string {
	adj := make(map[string][]string, len(ids))
	seen := make(map[edge]bool, len(edges))
	link := func(a, b string) {
		if seen[edge{a, b}] {
			return
		}
		seen[edge{a, b}] = true
		adj[a] = append(adj[a], b)
	}
	for _, ed := range edges {
		link(ed.from, ed.to)
		link(ed.to, ed.from)
	}
	return adj
}

// orderByDegree sorts ids by neighbour count, highest first. Ties keep input order.
func orderByDegree(ids []string, adj map[string][]string) []string {
	order := make([]string, len(ids))
	copy(order, ids)
	sort.SliceStable(order, func(i, j int) bool {
		return len(adj[order[i]]) > len(adj[order[j]])
	})
	return order
}
