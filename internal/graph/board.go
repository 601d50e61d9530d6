package graph

// MoveResult describes the outcome of a board transition. When Changed
// is false the drop was a no-op and no remote call should be issued.
type MoveResult struct {
	Hook      Hook
	Changed   bool
	PrevStage AwarenessStage
	PrevOrder int
}

// MoveHook is the data half of a drag-and-drop: move hookID to
// position index in the stage column. The gesture layer merely
// supplies the three parameters.
//
// The moved hook's new sort order is the number of hooks preceding the
// drop position. Siblings are not recomputed; duplicate sort orders
// among them are tolerated because display order ties break on ID.
// Dropping onto an empty column yields sort order 0. Dropping a hook
// onto its own current stage and position changes nothing.
//
// ok is false when the hook does not exist or the stage is not one of
// the five fixed stages.
func MoveHook(g *Graph, hookID string, stage AwarenessStage, index int) (MoveResult, bool) {
	h, exists := g.Hooks[hookID]
	if !exists || !ValidStage(stage) {
		return MoveResult{}, false
	}

	if index < 0 {
		index = 0
	}
	// Clamp against the destination column as it looks without the
	// moving hook in it.
	column := g.HooksByStage(stage)
	size := len(column)
	if h.Stage == stage {
		size--
	}
	if index > size {
		index = size
	}

	result := MoveResult{
		PrevStage: h.Stage,
		PrevOrder: h.SortOrder,
	}

	if h.Stage == stage && positionInColumn(column, hookID) == index {
		result.Hook = h
		return result, true
	}

	h.Stage = stage
	h.SortOrder = index
	g.Hooks[hookID] = h

	result.Hook = h
	result.Changed = true
	return result, true
}

func positionInColumn(column []Hook, hookID string) int {
	for i, h := range column {
		if h.ID == hookID {
			return i
		}
	}
	return -1
}
