package chessgen

import (
	"fmt"
	"io"

	"github.com/awalterschulze/gographviz"
)

// WriteDOT emits an episode's action sequence as a Graphviz chain, one
// node per sample, for eyeballing what a generated episode did.
func WriteDOT(ep Episode, w io.Writer) error {
	name := fmt.Sprintf("episode_%d", ep.Index)
	g := gographviz.NewGraph()
	if err := g.SetName(name); err != nil {
		return err
	}
	if err := g.SetDir(true); err != nil {
		return err
	}

	prev := ""
	for i, s := range ep.Samples {
		node := fmt.Sprintf("s%d", i)
		attrs := map[string]string{
			"label": fmt.Sprintf("%q", fmt.Sprintf("%d: %s", s.Index, s.Action)),
		}
		if s.Truncated {
			attrs["shape"] = "box"
		}
		if err := g.AddNode(name, node, attrs); err != nil {
			return err
		}
		if prev != "" {
			if err := g.AddEdge(prev, node, true, nil); err != nil {
				return err
			}
		}
		prev = node
	}

	_, err := io.WriteString(w, g.String())
	return err
}
