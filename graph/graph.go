// Package graph runs small typed state machines: each node transforms the
// state and names its successor, condition nodes pick a branch.
package graph

import (
	"context"
	"fmt"
)

// NodeType represents the type of a node in the graph
type NodeType string

const (
	NodeTypeStart     NodeType = "start"
	NodeTypeEnd       NodeType = "end"
	NodeTypeCondition NodeType = "condition"
	NodeTypeCustom    NodeType = "custom"
)

// NodeFunc is the function executed by a node
type NodeFunc[S any] func(context.Context, S) (S, error)

// ConditionFunc evaluates a condition and returns a key of the node's NextMap
type ConditionFunc[S any] func(context.Context, S) (string, error)

// Node represents a node in the execution graph
type Node[S any] struct {
	Name      string
	Type      NodeType
	Execute   NodeFunc[S]
	Condition ConditionFunc[S]  // Only for condition nodes
	Next      string            // Successor of non-condition nodes
	NextMap   map[string]string // For condition nodes: condition result -> next node
}

// Graph is a sequential state machine over S.
type Graph[S any] struct {
	nodes     map[string]*Node[S]
	startNode string
	endNode   string
	maxVisits int
	observer  func(ctx context.Context, node string, state S)
}

// NewGraph creates a new graph
func NewGraph[S any]() *Graph[S] {
	return &Graph[S]{
		nodes:     make(map[string]*Node[S]),
		maxVisits: 10,
	}
}

func (g *Graph[S]) validateNode(node *Node[S]) {
	if node.Name == "" {
		panic("node name cannot be empty")
	}
	if node.Type == NodeTypeCondition && node.Condition == nil {
		panic(fmt.Sprintf("condition node %s must have non-nil Condition function", node.Name))
	}
}

// AddNode adds a node to the graph. Start and end nodes are registered
// as the graph's entry and exit.
func (g *Graph[S]) AddNode(node *Node[S]) {
	if _, exists := g.nodes[node.Name]; exists {
		panic(fmt.Sprintf("node %s already exists", node.Name))
	}
	g.validateNode(node)
	g.nodes[node.Name] = node

	if node.Type == NodeTypeStart {
		g.startNode = node.Name
	}
	if node.Type == NodeTypeEnd {
		g.endNode = node.Name
	}
}

// SetStartNode sets the start node
func (g *Graph[S]) SetStartNode(name string) {
	if _, exists := g.nodes[name]; !exists {
		panic(fmt.Sprintf("node %s not found", name))
	}
	g.startNode = name
}

// SetEndNode sets the end node
func (g *Graph[S]) SetEndNode(name string) {
	if _, exists := g.nodes[name]; !exists {
		panic(fmt.Sprintf("node %s not found", name))
	}
	g.endNode = name
}

// SetMaxVisits sets the maximum number of visits to a node
func (g *Graph[S]) SetMaxVisits(maxVisits int) {
	g.maxVisits = maxVisits
}

// SetObserver registers fn to be called before each node runs.
func (g *Graph[S]) SetObserver(fn func(ctx context.Context, node string, state S)) {
	g.observer = fn
}

// GetNode returns a node by name
func (g *Graph[S]) GetNode(name string) (*Node[S], error) {
	node, exists := g.nodes[name]
	if !exists {
		return nil, fmt.Errorf("node %s not found", name)
	}
	return node, nil
}

// Execute walks the graph from the start node until the end node runs,
// threading state through every node on the path. Nodes without an
// Execute function pass the state through unchanged.
func (g *Graph[S]) Execute(ctx context.Context, state S) (S, error) {
	if g.startNode == "" {
		return state, fmt.Errorf("start node not set")
	}

	visited := make(map[string]int)
	current := g.startNode
	for {
		if err := ctx.Err(); err != nil {
			return state, err
		}

		node, exists := g.nodes[current]
		if !exists {
			return state, fmt.Errorf("node %s not found", current)
		}

		visited[current]++
		if visited[current] > g.maxVisits {
			return state, fmt.Errorf("infinite loop detected at node %s", current)
		}
		if g.observer != nil {
			g.observer(ctx, current, state)
		}

		if node.Type == NodeTypeCondition {
			result, err := node.Condition(ctx, state)
			if err != nil {
				return state, fmt.Errorf("error evaluating condition at node %s: %w", node.Name, err)
			}
			next, ok := node.NextMap[result]
			if !ok || next == "" {
				return state, fmt.Errorf("no branch %q at node %s", result, node.Name)
			}
			current = next
			continue
		}

		if node.Execute != nil {
			var err error
			state, err = node.Execute(ctx, state)
			if err != nil {
				return state, fmt.Errorf("error executing node %s: %w", node.Name, err)
			}
		}

		if node.Type == NodeTypeEnd || node.Name == g.endNode {
			return state, nil
		}
		if node.Next == "" {
			return state, fmt.Errorf("no next node specified for node %s", node.Name)
		}
		current = node.Next
	}
}

// Builder helps build graphs fluently
type Builder[S any] struct {
	graph *Graph[S]
}

// NewBuilder creates a new graph builder
func NewBuilder[S any]() *Builder[S] {
	return &Builder[S]{graph: NewGraph[S]()}
}

// AddNode adds a node to the graph
func (b *Builder[S]) AddNode(name string, nodeType NodeType, execute NodeFunc[S]) *Builder[S] {
	b.graph.AddNode(&Node[S]{
		Name:    name,
		Type:    nodeType,
		Execute: execute,
	})
	return b
}

// AddConditionNode adds a condition node
func (b *Builder[S]) AddConditionNode(name string, condition ConditionFunc[S], nextMap map[string]string) *Builder[S] {
	b.graph.AddNode(&Node[S]{
		Name:      name,
		Type:      NodeTypeCondition,
		Condition: condition,
		NextMap:   nextMap,
	})
	return b
}

// AddEdge connects two nodes
func (b *Builder[S]) AddEdge(from, to string) *Builder[S] {
	if node, exists := b.graph.nodes[from]; exists {
		node.Next = to
	}
	return b
}

// SetStart sets the start node
func (b *Builder[S]) SetStart(name string) *Builder[S] {
	b.graph.SetStartNode(name)
	return b
}

// SetEnd sets the end node
func (b *Builder[S]) SetEnd(name string) *Builder[S] {
	b.graph.SetEndNode(name)
	return b
}

// SetMaxVisits sets the maximum number of visits to a node
func (b *Builder[S]) SetMaxVisits(maxVisits int) *Builder[S] {
	b.graph.SetMaxVisits(maxVisits)
	return b
}

// Observe registers a per-node observer
func (b *Builder[S]) Observe(fn func(ctx context.Context, node string, state S)) *Builder[S] {
	b.graph.SetObserver(fn)
	return b
}

// Build returns the constructed graph
func (b *Builder[S]) Build() *Graph[S] {
	return b.graph
}
