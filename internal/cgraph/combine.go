package cgraph

/*
 * Graph combination.
 *
 * Combine merges the generic domain knowledge base with a merchant-specific
 * overlay into one immutable analysis graph. Value nodes are unified by
 * value identity; aggregator nodes are copied as-is (two graphs never need
 * to share an aggregator, only the values underneath it).
 *
 * Contradiction detection happens edge by edge: if both inputs declare a
 * hard fact for the same (pred, succ) pair with opposite polarity, the
 * merge fails rather than silently preferring either side. A stale or
 * wrong overlay must surface at construction time, not misroute traffic.
 */

// Combine merges two constraint graphs into a new one. Neither input is
// modified. Fails with ContradictionError when the inputs declare
// contradictory fixed facts for the same node pair.
func Combine(a, b *Graph) (*Graph, error) {
	builder := NewBuilder()

	if _, err := copyInto(builder, a); err != nil {
		return nil, err
	}
	if _, err := copyInto(builder, b); err != nil {
		return nil, err
	}

	return builder.Build(), nil
}

// copyInto replays a graph's nodes and edges into the builder and returns
// the old-ID to new-ID mapping.
func copyInto(builder *Builder, g *Graph) (map[NodeID]NodeID, error) {
	idMap := make(map[NodeID]NodeID, len(g.nodes))

	// nodes are appended in creation order, so aggregator members always
	// precede the aggregator itself and are already mapped
	for oldID, node := range g.nodes {
		switch node.Kind {
		case NodeValue:
			idMap[NodeID(oldID)] = builder.ValueNode(node.Value)
		case NodeAllOf, NodeAnyOf:
			members := make([]NodeID, 0, len(node.Members))
			for _, m := range node.Members {
				members = append(members, idMap[m])
			}
			if node.Kind == NodeAllOf {
				idMap[NodeID(oldID)] = builder.AllOfNode(members...)
			} else {
				idMap[NodeID(oldID)] = builder.AnyOfNode(members...)
			}
		}
	}

	for _, e := range g.edges {
		if err := builder.AddEdge(idMap[e.Pred], idMap[e.Succ], e.Strength, e.Relation); err != nil {
			return nil, err
		}
	}
	return idMap, nil
}
