package session

// State 会话状态
type State int

const (
	StateCreated State = iota
	StateAwaitingPlayers
	StateRoundBarrierWait
	StateInRound
	StateRoundEndBarrierWait
	StateFinalized
	StateAborted
)

var stateNames = map[State]string{
	StateCreated:             "created",
	StateAwaitingPlayers:     "awaiting_players",
	StateRoundBarrierWait:    "round_barrier_wait",
	StateInRound:             "in_round",
	StateRoundEndBarrierWait: "round_end_barrier_wait",
	StateFinalized:           "finalized",
	StateAborted:             "aborted",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal 是否为终止状态
func (s State) Terminal() bool {
	return s == StateFinalized || s == StateAborted
}
