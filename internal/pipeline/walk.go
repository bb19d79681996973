package pipeline

import (
	"errors"
	"fmt"
	"io"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"
)

// SkipChildren may be returned by a WalkFunc to skip the children of the
// node being visited.
var SkipChildren = errors.New("skip children")

// WalkFunc is called for every node; depth is 0 for the root.
type WalkFunc func(n Node, depth int) error

// Walk visits root and its descendants depth-first in declared order.
func Walk(root Node, fn WalkFunc) error {
	return walk(root, 0, fn)
}

func walk(n Node, depth int, fn WalkFunc) error {
	if err := fn(n, depth); err != nil {
		if errors.Is(err, SkipChildren) {
			return nil
		}
		return err
	}
	for _, child := range n.Children() {
		if err := walk(child, depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}

type dotNode struct {
	id   int64
	node Node
}

func (n dotNode) ID() int64      { return n.id }
func (n dotNode) DOTID() string { return fmt.Sprintf("n%d", n.id) }

func (n dotNode) Attributes() []encoding.Attribute {
	return []encoding.Attribute{
		{Key: "label", Value: fmt.Sprintf(`"%s\n[%s]"`, n.node.Type(), n.node.Name())},
	}
}

type attrs []encoding.Attribute

func (a attrs) Attributes() []encoding.Attribute { return a }

// dotGraph adds the default styling of the export to a directed graph.
type dotGraph struct {
	*simple.DirectedGraph
}

func (dotGraph) DOTAttributers() (graph, node, edge encoding.Attributer) {
	return attrs{{Key: "rankdir", Value: "TB"}},
		attrs{{Key: "shape", Value: "box"}, {Key: "style", Value: "filled"}, {Key: "color", Value: "lightskyblue"}},
		attrs{{Key: "style", Value: "bold"}, {Key: "color", Value: "lightskyblue"}, {Key: "arrowhead", Value: "none"}}
}

// PipelineGraph builds a directed graph with an edge from every pipeline to
// each of its children.
func PipelineGraph(root Node) (graph.Directed, error) {
	g := dotGraph{simple.NewDirectedGraph()}
	var parents []dotNode
	var next int64
	err := Walk(root, func(n Node, depth int) error {
		dn := dotNode{id: next, node: n}
		next++
		g.AddNode(dn)
		parents = parents[:depth]
		if depth > 0 {
			g.SetEdge(g.NewEdge(parents[depth-1], dn))
		}
		parents = append(parents, dn)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// WriteDOT writes the pipeline tree rooted at root in Graphviz DOT format.
func WriteDOT(w io.Writer, root Node) error {
	g, err := PipelineGraph(root)
	if err != nil {
		return err
	}
	out, err := dot.Marshal(g, "pipeline", "", "  ")
	if err != nil {
		return fmt.Errorf("marshal pipeline graph: %w", err)
	}
	_, err = w.Write(append(out, '\n'))
	return err
}
