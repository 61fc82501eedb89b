package ttb

import (
	"fmt"
	"path"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
)

//nodeDescription returns the label of an internal node for tree rendering.
func (nt *NormalizedTree) nodeDescription(id int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintln("id: ", id))
	sb.WriteString(fmt.Sprintf("f_%d <= %6.5f", nt.Features[id], nt.Thresholds[id]))
	return sb.String()
}

//leafDescription returns the label of a leaf for tree rendering.
func (nt *NormalizedTree) leafDescription(id int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintln("id: ", id))
	sb.WriteString("[")
	for _, val := range nt.Values[id] {
		sb.WriteString(fmt.Sprintf("  %6.2f,\n", val))
	}
	sb.WriteString("]")
	return sb.String()
}

func recurrentDraw(g *cgraph.Graph, nt *NormalizedTree, id int, parentNode *cgraph.Node) {
	currentNode, err := g.CreateNode(fmt.Sprint(id))
	HandleError(err)

	if parentNode != nil {
		g.CreateEdge("", parentNode, currentNode)
	}

	if nt.IsLeaf(id) {
		currentNode.Set("label", nt.leafDescription(id))
		currentNode.Set("shape", "box")
	} else {
		currentNode.Set("label", nt.nodeDescription(id))
		recurrentDraw(g, nt, nt.Lefts[id], currentNode)
		recurrentDraw(g, nt, nt.Rights[id], currentNode)
	}
}

//DrawGraph renders the normalized tree as a graphviz graph.
func (nt *NormalizedTree) DrawGraph() (*graphviz.Graphviz, *cgraph.Graph) {
	graphViz := graphviz.New()
	graph, err := graphViz.Graph()
	HandleError(err)

	recurrentDraw(graph, nt, 0, nil)

	return graphViz, graph
}

//RenderTrees renders every normalized tree of an ensemble into its own figure
//file under picturesDirectory.
func RenderTrees(trees []*NormalizedTree, dumpPrefix, figureType, picturesDirectory string) {
	graphvizType := map[string]graphviz.Format{
		"png": graphviz.PNG,
		"svg": graphviz.SVG,
		"jpg": graphviz.JPG,
	}[figureType]

	for graphInd, currentTree := range trees {
		filename := fmt.Sprintf("%s_%05d.%s", dumpPrefix, graphInd, figureType)
		graphViz, graph := currentTree.DrawGraph()
		HandleError(graphViz.RenderFilename(graph, graphvizType, path.Join(picturesDirectory, filename)))
	}
}
