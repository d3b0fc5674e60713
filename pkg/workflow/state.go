package workflow

// State is the stage a processing cycle is in. Cycles move strictly forward.
type State int

const (
	StateFilterInput State = iota
	StateProcessQuery
	StateRetrieveMemory
	StateGenerateResponse
	StateHumanApproval
	StateUpdateMemory
	StateTrimMemory
	StateDone
)

var stateNames = map[State]string{
	StateFilterInput:      "filter_input",
	StateProcessQuery:     "process_query",
	StateRetrieveMemory:   "retrieve_memory",
	StateGenerateResponse: "generate_response",
	StateHumanApproval:    "human_approval",
	StateUpdateMemory:     "update_memory",
	StateTrimMemory:       "trim_memory",
	StateDone:             "done",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether the cycle has finished.
func (s State) Terminal() bool {
	return s >= StateDone
}

// Next is the transition table. StateDone is absorbing.
func Next(s State) State {
	if s.Terminal() {
		return StateDone
	}
	return s + 1
}

// Sequence lists every non-terminal state in execution order.
func Sequence() []State {
	out := make([]State, 0, int(StateDone))
	for s := StateFilterInput; !s.Terminal(); s = Next(s) {
		out = append(out, s)
	}
	return out
}
