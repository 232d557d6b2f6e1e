package topology

import (
	"fmt"
	"strconv"

	"github.com/awalterschulze/gographviz"
)

// ExportDOT renders the pipeline as a Graphviz digraph: one cluster per
// stage, serial edges inside each group and bus edges from the last job of
// every group to the first job of every group in the next stage.
func ExportDOT(p Pipeline) (string, error) {
	g := gographviz.NewGraph()
	graphName := strconv.Quote(p.ID)
	if err := g.SetName(graphName); err != nil {
		return "", fmt.Errorf("export dot: %w", err)
	}
	if err := g.SetDir(true); err != nil {
		return "", fmt.Errorf("export dot: %w", err)
	}
	if err := g.AddAttr(graphName, "rankdir", "LR"); err != nil {
		return "", fmt.Errorf("export dot: %w", err)
	}
	if p.Name != "" {
		if err := g.AddAttr(graphName, "label", strconv.Quote(p.Name)); err != nil {
			return "", fmt.Errorf("export dot: %w", err)
		}
	}

	for si, s := range p.Stages {
		cluster := strconv.Quote("cluster_" + s.ID)
		attrs := map[string]string{"label": strconv.Quote(s.Name)}
		if !s.IsParallel {
			attrs["style"] = "dashed"
		}
		if err := g.AddSubGraph(graphName, cluster, attrs); err != nil {
			return "", fmt.Errorf("export dot stage %s: %w", s.ID, err)
		}
		for _, grp := range s.Groups {
			for ji, j := range grp {
				node := map[string]string{
					"label": strconv.Quote(j.Name),
					"shape": "box",
				}
				if err := g.AddNode(cluster, strconv.Quote(j.ID), node); err != nil {
					return "", fmt.Errorf("export dot job %s: %w", j.ID, err)
				}
				if ji > 0 {
					if err := g.AddEdge(strconv.Quote(grp[ji-1].ID), strconv.Quote(j.ID), true, nil); err != nil {
						return "", fmt.Errorf("export dot job %s: %w", j.ID, err)
					}
				}
			}
		}
		if si == 0 {
			continue
		}
		for _, out := range lastJobs(p.Stages[si-1]) {
			for _, in := range firstJobs(s) {
				if err := g.AddEdge(strconv.Quote(out), strconv.Quote(in), true, nil); err != nil {
					return "", fmt.Errorf("export dot stage %s: %w", s.ID, err)
				}
			}
		}
	}
	return g.String(), nil
}

func lastJobs(s Stage) []string {
	ids := make([]string, 0, len(s.Groups))
	for _, g := range s.Groups {
		if len(g) > 0 {
			ids = append(ids, g[len(g)-1].ID)
		}
	}
	return ids
}

func firstJobs(s Stage) []string {
	ids := make([]string, 0, len(s.Groups))
	for _, g := range s.Groups {
		if len(g) > 0 {
			ids = append(ids, g[0].ID)
		}
	}
	return ids
}
