// Package spf recomputes shortest paths over the LSDB's topology view
// using Dijkstra (spec §4.3). It adapts the spec's float64 cost model to
// katalvlaran/lvlath's int64-weighted core.Graph via fixed-point scaling.
package spf

import (
	"math"

	"github.com/katalvlaran/lvlath/core"
	"github.com/katalvlaran/lvlath/dijkstra"

	"github.com/qosrouted/routingd/lsdb"
)

// costScale converts a float64 cost in [0,100] (plus +Inf) into the
// int64 weight core.Graph requires, while keeping enough precision for
// the spec's material-change deltas (0.1 granularity easily survives
// three decimal digits of scaling).
const costScale = 1000

// Route is one destination's resolved shortest path (spec §3
// RoutingTable).
type Route struct {
	Destination string
	FirstHop    string
	TotalCost   float64
}

// Table maps destination router ID to its resolved Route. Only
// destinations with a finite-cost path and a distinct first hop are
// present (spec §3).
type Table map[string]Route

// Compute builds the weighted directed graph implied by entries (one
// node per LSDB origin, one directed edge per advertised link with a
// finite cost) and runs Dijkstra from origin. Unusable (+Inf cost)
// links are never inserted as edges, so InfEdgeThreshold never needs to
// trigger; it is still set to math.MaxInt64/2 as a defensive backstop.
func Compute(entries map[string]lsdb.Entry, origin string) Table {
	g := core.NewGraph(core.WithWeighted(), core.WithDirected(true))

	for id := range entries {
		_ = g.AddVertex(id)
	}
	for originID, entry := range entries {
		for neighborID, link := range entry.Links {
			if math.IsInf(link.Cost, 1) || link.Cost < 0 {
				continue
			}
			if !g.HasVertex(neighborID) {
				_ = g.AddVertex(neighborID)
			}
			weight := int64(link.Cost * costScale)
			_, _ = g.AddEdge(originID, neighborID, weight)
		}
	}

	if !g.HasVertex(origin) {
		return Table{}
	}

	dist, prev, err := dijkstra.Dijkstra(g, dijkstra.Source(origin), dijkstra.WithReturnPath(), dijkstra.WithInfEdgeThreshold(math.MaxInt64/2))
	if err != nil {
		return Table{}
	}

	table := make(Table)
	for dest, scaledDist := range dist {
		if dest == origin || scaledDist >= math.MaxInt64 {
			continue
		}
		firstHop := firstHopOf(prev, origin, dest)
		if firstHop == "" {
			continue
		}
		table[dest] = Route{
			Destination: dest,
			FirstHop:    firstHop,
			TotalCost:   float64(scaledDist) / costScale,
		}
	}
	return table
}

// firstHopOf back-traces the predecessor chain from dest to origin and
// returns the neighbor of origin along that path (spec §4.3: "first-hop
// is the second node on the back-traced path from origin").
func firstHopOf(prev map[string]string, origin, dest string) string {
	node := dest
	for {
		p, ok := prev[node]
		if !ok || p == "" {
			return ""
		}
		if p == origin {
			return node
		}
		node = p
		if node == origin {
			// Back-trace looped onto origin without ever being the
			// direct hop; guard against malformed prev chains.
			return ""
		}
	}
}
