package engine

// Action is the verdict the engine returns for a processed frame (spec §6).
type Action uint8

const (
	// Pass delivers the frame to the normal network stack unchanged (or,
	// for a rewritten RST, delivers the rewritten frame).
	Pass Action = iota
	// TX retransmits the rewritten frame out the ingress interface.
	TX
	// Aborted drops the frame; the caller should count it as an error.
	Aborted
)

func (a Action) String() string {
	switch a {
	case Pass:
		return "PASS"
	case TX:
		return "TX"
	case Aborted:
		return "ABORTED"
	default:
		return "Action(?)"
	}
}

// AbortReason classifies why an Action came back Aborted (spec §7 error
// kinds 3-6; kinds 1-2 are decode-time and always resolve to Pass, not
// Aborted, so they have no AbortReason).
type AbortReason uint8

const (
	reasonNone AbortReason = iota
	// ReasonUnroutedData is client-facing data arriving before a route
	// exists (error kind 3).
	ReasonUnroutedData
	// ReasonMissingState is a route whose numbers/availability/state
	// entry is absent when needed (error kind 4).
	ReasonMissingState
	// ReasonTableFull is an insert/delete failing at an invariant-critical
	// step (error kind 5).
	ReasonTableFull
	// ReasonSlotOutOfRange is a reroute's slot index >= MAX_PER_SERVER
	// (error kind 6).
	ReasonSlotOutOfRange
)

func (r AbortReason) String() string {
	switch r {
	case ReasonUnroutedData:
		return "unrouted_data"
	case ReasonMissingState:
		return "missing_state"
	case ReasonTableFull:
		return "table_full"
	case ReasonSlotOutOfRange:
		return "slot_out_of_range"
	default:
		return "none"
	}
}

// Result is what ProcessFrame returns: the action to take and, for Aborted,
// why.
type Result struct {
	Action Action
	Reason AbortReason
}
