package graph

import "errors"

var (
	// ErrLimitExceeded signals more than 32 distinct node- or edge-labels,
	// or more than 32 query nodes in one query. Per §7 this is fatal.
	ErrLimitExceeded = errors.New("graph: label or query-node limit exceeded (max 32)")

	// ErrUnknownLabel names the case of a label with no assigned bit.
	// Label-mask resolution (GetNodeLabelMask/GetEdgeLabelMask) does not
	// return it; it reports that case through its ok result instead.
	ErrUnknownLabel = errors.New("graph: unknown label")
)

const maxLabels = 32
