package dag_test

import (
	"fmt"

	"github.com/matzehuels/astrolabe/pkg/dag"
)

func ExampleDAG_basic() {
	// A chain of declarations: C uses B, B uses A
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "A"})
	_ = g.AddNode(dag.Node{ID: "B"})
	_ = g.AddNode(dag.Node{ID: "C"})
	_ = g.AddEdge(dag.Edge{From: "B", To: "A"})
	_ = g.AddEdge(dag.Edge{From: "C", To: "B"})

	fmt.Println("Nodes:", g.NodeCount())
	fmt.Println("Edges:", g.EdgeCount())
	fmt.Println("Leaves:", dag.NodeIDs(g.Sinks()))
	fmt.Println("Unused:", dag.NodeIDs(g.Sources()))
	// Output:
	// Nodes: 3
	// Edges: 2
	// Leaves: [A]
	// Unused: [C]
}

func ExampleDAG_traversal() {
	// A theorem that uses two lemmas
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "thm"})
	_ = g.AddNode(dag.Node{ID: "lemma1"})
	_ = g.AddNode(dag.Node{ID: "lemma2"})
	_ = g.AddEdge(dag.Edge{From: "thm", To: "lemma1"})
	_ = g.AddEdge(dag.Edge{From: "thm", To: "lemma2"})

	fmt.Println("Dependencies of thm:", g.Children("thm"))
	fmt.Println("Used by lemma1:", g.Parents("lemma1"))
	fmt.Println("Out-degree of thm:", g.OutDegree("thm"))
	// Output:
	// Dependencies of thm: [lemma1 lemma2]
	// Used by lemma1: [thm]
	// Out-degree of thm: 2
}

func ExampleDAG_StronglyConnected() {
	// even and odd are mutually recursive
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "even"})
	_ = g.AddNode(dag.Node{ID: "odd"})
	_ = g.AddNode(dag.Node{ID: "zero"})
	_ = g.AddEdge(dag.Edge{From: "even", To: "odd"})
	_ = g.AddEdge(dag.Edge{From: "odd", To: "even"})
	_ = g.AddEdge(dag.Edge{From: "even", To: "zero"})

	fmt.Println(g.StronglyConnected())
	fmt.Println(g.Validate())
	// Output:
	// [[even odd] [zero]]
	// graph contains a cycle
}
