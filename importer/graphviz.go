package importer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"erd/diagram"
	"erd/geometry"
	"erd/layout"
)

const dotID = `("(?:[^"\\]|\\.)*"|[\w.]+)`

var (
	dotEdgePattern    = regexp.MustCompile(`^` + dotID + `\s*(--|->)\s*` + dotID + `\s*(?:\[([^\]]*)\])?;?$`)
	dotNodePattern    = regexp.MustCompile(`^` + dotID + `\s*\[([^\]]*)\];?$`)
	dotAttrPattern    = regexp.MustCompile(`(\w+)\s*=\s*("((?:[^"\\]|\\.)*)"|([^,\s\]]+))`)
	cardinalitySuffix = regexp.MustCompile(`\s*\b([1NM]:[1NM])$`)
)

type dotNode struct {
	id    string
	attrs map[string]string
}

type dotEdge struct {
	from, to string
	attrs    map[string]string
}

// GraphvizImporter imports Graphviz DOT documents. Box nodes become entities,
// diamonds become relationship markers and ellipses become attributes of the
// entity they are linked to. Pinned pos values are converted back to
// top-left world coordinates.
type GraphvizImporter struct {
	sizes layout.Config
}

// NewGraphvizImporter creates a new Graphviz importer
func NewGraphvizImporter() *GraphvizImporter {
	return &GraphvizImporter{sizes: layout.DefaultConfig()}
}

// CanImport checks if the content is a Graphviz DOT diagram
func (g *GraphvizImporter) CanImport(content string) bool {
	content = strings.TrimSpace(content)
	return strings.HasPrefix(content, "digraph") ||
		strings.HasPrefix(content, "graph") ||
		strings.HasPrefix(content, "strict ")
}

// Import converts Graphviz DOT content to a diagram
func (g *GraphvizImporter) Import(content string) (*diagram.Diagram, error) {
	var nodes []*dotNode
	byID := make(map[string]*dotNode)
	var edges []dotEdge

	node := func(id string) *dotNode {
		if n, ok := byID[id]; ok {
			return n
		}
		n := &dotNode{id: id, attrs: map[string]string{}}
		byID[id] = n
		nodes = append(nodes, n)
		return n
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == "{" || line == "}" || strings.HasPrefix(line, "//") || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "digraph") || strings.HasPrefix(line, "graph") || strings.HasPrefix(line, "strict") {
			continue
		}
		if strings.HasPrefix(line, "node ") || strings.HasPrefix(line, "edge ") || strings.Contains(line, "=") && !strings.Contains(line, "[") {
			continue
		}

		if m := dotEdgePattern.FindStringSubmatch(line); m != nil {
			from, to := unquoteDOT(m[1]), unquoteDOT(m[3])
			node(from)
			node(to)
			edges = append(edges, dotEdge{from: from, to: to, attrs: g.parseAttributes(m[4])})
			continue
		}
		if m := dotNodePattern.FindStringSubmatch(line); m != nil {
			n := node(unquoteDOT(m[1]))
			for k, v := range g.parseAttributes(m[2]) {
				n.attrs[k] = v
			}
		}
	}

	if len(nodes) == 0 {
		return nil, fmt.Errorf("no nodes found in Graphviz diagram")
	}
	return g.build(nodes, byID, edges)
}

func (g *GraphvizImporter) build(nodes []*dotNode, byID map[string]*dotNode, edges []dotEdge) (*diagram.Diagram, error) {
	d := &diagram.Diagram{}
	kinds := make(map[string]diagram.NodeKind, len(nodes))
	entityIndex := make(map[string]int)

	for _, n := range nodes {
		switch strings.ToLower(n.attrs["shape"]) {
		case "diamond", "mdiamond":
			kinds[n.id] = diagram.KindMarker
		case "ellipse", "oval":
			kinds[n.id] = diagram.KindAttribute
		default:
			kinds[n.id] = diagram.KindEntity
			pos, err := g.position(n, g.sizes.EntitySize)
			if err != nil {
				return nil, err
			}
			d.Entities = append(d.Entities, diagram.Entity{ID: n.id, Name: labelOf(n), Position: pos})
			entityIndex[n.id] = len(d.Entities) - 1
		}
	}

	markerEnds := make(map[string][]string)
	for _, e := range edges {
		kf, kt := kinds[e.from], kinds[e.to]
		switch {
		case kf == diagram.KindEntity && kt == diagram.KindEntity:
			d.Relationships = append(d.Relationships, diagram.Relationship{
				ID:           e.from + "-" + e.to,
				Name:         e.attrs["label"],
				FromEntityID: e.from,
				ToEntityID:   e.to,
			})
		case kf == diagram.KindEntity && kt == diagram.KindAttribute:
			if err := g.attach(d, entityIndex[e.from], byID[e.to]); err != nil {
				return nil, err
			}
		case kf == diagram.KindAttribute && kt == diagram.KindEntity:
			if err := g.attach(d, entityIndex[e.to], byID[e.from]); err != nil {
				return nil, err
			}
		case kf == diagram.KindMarker && kt == diagram.KindEntity:
			markerEnds[e.from] = append(markerEnds[e.from], e.to)
		case kf == diagram.KindEntity && kt == diagram.KindMarker:
			markerEnds[e.to] = append(markerEnds[e.to], e.from)
		}
	}

	for _, n := range nodes {
		if kinds[n.id] != diagram.KindMarker {
			continue
		}
		ends := markerEnds[n.id]
		switch len(ends) {
		case 1:
			ends = append(ends, ends[0])
		case 2:
		default:
			return nil, fmt.Errorf("relationship %s must link two entities, found %d", n.id, len(ends))
		}
		pos, err := g.position(n, g.sizes.MarkerSize)
		if err != nil {
			return nil, err
		}

		name, card := labelOf(n), ""
		if m := cardinalitySuffix.FindStringSubmatch(name); m != nil {
			card = m[1]
			name = strings.TrimSpace(strings.TrimSuffix(name, m[0]))
		}
		d.Relationships = append(d.Relationships, diagram.Relationship{
			ID:           n.id,
			Name:         name,
			FromEntityID: ends[0],
			ToEntityID:   ends[1],
			Cardinality:  card,
			Position:     pos,
		})
	}

	return d, nil
}

func (g *GraphvizImporter) attach(d *diagram.Diagram, entity int, n *dotNode) error {
	pos, err := g.position(n, g.sizes.AttributeSize)
	if err != nil {
		return err
	}
	ent := &d.Entities[entity]
	ent.Attributes = append(ent.Attributes, diagram.Attribute{
		ID:       n.id,
		Name:     labelOf(n),
		Key:      strings.Contains(n.attrs["style"], "bold"),
		EntityID: ent.ID,
		Position: pos,
	})
	return nil
}

// position converts a pinned "x,y!" center with y up into a top-left point.
// Explicit width and height, given in inches, override the default size.
func (g *GraphvizImporter) position(n *dotNode, size geometry.Size) (geometry.Point, error) {
	raw, ok := n.attrs["pos"]
	if !ok {
		return geometry.Point{}, nil
	}
	parts := strings.Split(strings.TrimSuffix(raw, "!"), ",")
	if len(parts) < 2 {
		return geometry.Point{}, fmt.Errorf("node %s: malformed pos %q", n.id, raw)
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errX != nil || errY != nil {
		return geometry.Point{}, fmt.Errorf("node %s: malformed pos %q", n.id, raw)
	}

	if w, err := strconv.ParseFloat(n.attrs["width"], 64); err == nil && w > 0 {
		size.Width = w * 72
	}
	if h, err := strconv.ParseFloat(n.attrs["height"], 64); err == nil && h > 0 {
		size.Height = h * 72
	}
	return geometry.RectAround(geometry.Point{X: x, Y: -y}, size).Min, nil
}

// parseAttributes parses DOT attribute string into a map
func (g *GraphvizImporter) parseAttributes(attrStr string) map[string]string {
	attrs := make(map[string]string)
	for _, match := range dotAttrPattern.FindAllStringSubmatch(attrStr, -1) {
		value := match[4]
		if strings.HasPrefix(match[2], `"`) {
			value = unquoteDOT(match[2])
		}
		attrs[match[1]] = value
	}
	return attrs
}

func labelOf(n *dotNode) string {
	if l, ok := n.attrs["label"]; ok && l != "" {
		return l
	}
	return n.id
}

// unquoteDOT strips DOT double quotes and their escapes.
func unquoteDOT(s string) string {
	if len(s) < 2 || !strings.HasPrefix(s, `"`) || !strings.HasSuffix(s, `"`) {
		return s
	}
	s = s[1 : len(s)-1]
	s = strings.ReplaceAll(s, `\"`, `"`)
	return strings.ReplaceAll(s, `\\`, `\`)
}

// GetFormatName returns the format name
func (g *GraphvizImporter) GetFormatName() string {
	return "Graphviz"
}

// GetFileExtensions returns common file extensions
func (g *GraphvizImporter) GetFileExtensions() []string {
	return []string{".dot", ".gv"}
}
