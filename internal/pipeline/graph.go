package pipeline

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"SLComply/internal/domain"
	"SLComply/internal/markup"
)

// DefaultTreemapRoot labels the hierarchy root when none is configured.
const DefaultTreemapRoot = "Sellafield Manuals and Practices"

const (
	labelWidth        = 100
	sourceNodeColor   = "#00008B"
	gradientStart     = "#483D8B"
	gradientEnd       = "#FFEBCD"
	linkOpacity       = 0.6
	flowYStart        = -0.1
	flowYEnd          = 1.0
	nodeKindDocument  = "document"
	nodeKindReference = "related"
)

// HierarchyNode is one box of the treemap: the root, a related document or a change.
type HierarchyNode struct {
	ID         string `json:"id"`
	Parent     string `json:"parent"`
	Label      string `json:"label"`
	Value      int    `json:"value"`
	ChangeID   int64  `json:"changeId,omitempty"`
	Text       string `json:"text,omitempty"`
	Revision   string `json:"revision,omitempty"`
	PageNumber int    `json:"pageNumber,omitempty"`
	Section    string `json:"section,omitempty"`
}

// HierarchyView is the root → related document → change containment tree.
type HierarchyView struct {
	Root  string          `json:"root"`
	Nodes []HierarchyNode `json:"nodes"`
}

// PrepareHierarchy groups graph rows by (root, related document, change ID).
// Parents carry the sum of their children's values.
func PrepareHierarchy(rows []domain.GraphRow, root string) HierarchyView {
	if root == "" {
		root = DefaultTreemapRoot
	}

	type leaf struct {
		row   domain.GraphRow
		count int
	}
	groups := map[string]map[int64]*leaf{}
	for _, row := range rows {
		changes, ok := groups[row.RelatedDocument]
		if !ok {
			changes = map[int64]*leaf{}
			groups[row.RelatedDocument] = changes
		}
		if l, ok := changes[row.ID]; ok {
			l.count++
			continue
		}
		changes[row.ID] = &leaf{row: row, count: 1}
	}

	related := make([]string, 0, len(groups))
	for doc := range groups {
		related = append(related, doc)
	}
	sort.Strings(related)

	view := HierarchyView{Root: root, Nodes: []HierarchyNode{{ID: root, Label: root}}}
	total := 0
	for _, doc := range related {
		docID := root + "/" + doc
		parent := len(view.Nodes)
		view.Nodes = append(view.Nodes, HierarchyNode{ID: docID, Parent: root, Label: doc})

		ids := make([]int64, 0, len(groups[doc]))
		for id := range groups[doc] {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		sum := 0
		for _, id := range ids {
			l := groups[doc][id]
			label := strconv.FormatInt(id, 10)
			view.Nodes = append(view.Nodes, HierarchyNode{
				ID:         docID + "/" + label,
				Parent:     docID,
				Label:      label,
				Value:      l.count,
				ChangeID:   id,
				Text:       strings.Join(markup.Wrap(markup.PlainText(l.row.ChangeText), labelWidth), "<br>"),
				Revision:   formatRevision(l.row.CurrentRevision, l.row.CurrentRevisionRaw),
				PageNumber: l.row.PageNumber,
				Section:    l.row.SectionTitle,
			})
			sum += l.count
		}
		view.Nodes[parent].Value = sum
		total += sum
	}
	view.Nodes[0].Value = total

	return view
}

// FlowNode is a source document or related document in the flow view.
type FlowNode struct {
	ID    int     `json:"id"`
	Label string  `json:"label"`
	Kind  string  `json:"kind"`
	Color string  `json:"color"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// FlowLink is the weighted edge between a document and a related document.
type FlowLink struct {
	Source      int    `json:"source"`
	Target      int    `json:"target"`
	Value       int    `json:"value"`
	Color       string `json:"color"`
	SourceLabel string `json:"sourceLabel"`
	TargetLabel string `json:"targetLabel"`
}

// FlowView is the node/edge payload of the document flow diagram.
type FlowView struct {
	Nodes []FlowNode `json:"nodes"`
	Links []FlowLink `json:"links"`
}

// PrepareFlow counts changes per (document, related document). Source
// documents get IDs 0..n-1 in name order; related documents continue at n.
func PrepareFlow(rows []domain.GraphRow) (FlowView, error) {
	type edge struct{ source, target string }
	counts := map[edge]int{}
	sources := map[string]struct{}{}
	targets := map[string]struct{}{}
	for _, row := range rows {
		counts[edge{row.DocumentName, row.RelatedDocument}]++
		sources[row.DocumentName] = struct{}{}
		targets[row.RelatedDocument] = struct{}{}
	}

	sourceNames := sortedSet(sources)
	targetNames := sortedSet(targets)

	colors, err := gradient(len(targetNames))
	if err != nil {
		return FlowView{}, err
	}

	total := len(sourceNames) + len(targetNames)
	ids := map[string]int{}
	view := FlowView{Nodes: make([]FlowNode, 0, total)}
	for i, name := range sourceNames {
		ids[nodeKindDocument+name] = i
		view.Nodes = append(view.Nodes, FlowNode{
			ID: i, Label: name, Kind: nodeKindDocument, Color: sourceNodeColor, X: 0, Y: spread(i, total),
		})
	}
	linkColors := map[string]string{}
	for i, name := range targetNames {
		id := len(sourceNames) + i
		ids[nodeKindReference+name] = id
		view.Nodes = append(view.Nodes, FlowNode{
			ID: id, Label: name, Kind: nodeKindReference, Color: colors[i], X: 1, Y: spread(id, total),
		})
		rgba, err := translucent(colors[i])
		if err != nil {
			return FlowView{}, err
		}
		linkColors[name] = rgba
	}

	edges := make([]edge, 0, len(counts))
	for e := range counts {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].source != edges[j].source {
			return edges[i].source < edges[j].source
		}
		return edges[i].target < edges[j].target
	})

	for _, e := range edges {
		view.Links = append(view.Links, FlowLink{
			Source:      ids[nodeKindDocument+e.source],
			Target:      ids[nodeKindReference+e.target],
			Value:       counts[e],
			Color:       linkColors[e.target],
			SourceLabel: e.source,
			TargetLabel: e.target,
		})
	}

	return view, nil
}

// gradient interpolates n colours linearly from gradientStart to gradientEnd.
func gradient(n int) ([]string, error) {
	from, err := colorful.Hex(gradientStart)
	if err != nil {
		return nil, fmt.Errorf("parse gradient start: %w", err)
	}
	to, err := colorful.Hex(gradientEnd)
	if err != nil {
		return nil, fmt.Errorf("parse gradient end: %w", err)
	}

	colors := make([]string, n)
	for i := range colors {
		mix := 0.0
		if n > 1 {
			mix = float64(i) / float64(n-1)
		}
		colors[i] = from.BlendRgb(to, mix).Clamped().Hex()
	}
	return colors, nil
}

func translucent(hex string) (string, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return "", fmt.Errorf("parse colour %s: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return fmt.Sprintf("rgba(%d, %d, %d, %g)", r, g, b, linkOpacity), nil
}

func spread(i, n int) float64 {
	if n <= 1 {
		return flowYStart
	}
	return flowYStart + float64(i)*(flowYEnd-flowYStart)/float64(n-1)
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
