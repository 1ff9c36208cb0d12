package server

import "time"

// Phase is the closed set of room states. Transitions only move forward;
// the sole regression is result -> hint via the host's "next round".
type Phase string

const (
	PhaseLobby  Phase = "lobby"
	PhaseHint   Phase = "hint"
	PhaseVote   Phase = "vote"
	PhaseResult Phase = "result"
)

func (p Phase) Valid() bool {
	switch p {
	case PhaseLobby, PhaseHint, PhaseVote, PhaseResult:
		return true
	}
	return false
}

type RoomSummary struct {
	Code    string
	Phase   Phase
	Players int
}

type Room struct {
	Code         string
	DBID         uint
	Phase        Phase
	RoundCount   int
	HintDeadline *time.Time
	VoteDeadline *time.Time
	HostID       int
	Players      []Player
	Rounds       []RoundState
}

type Player struct {
	ID     int
	DBID   uint
	Name   string
	IsHost bool
	Score  int
}

type RoundState struct {
	Number   int
	DBID     uint
	Topic    string
	SpyTopic string
	SpyID    int
	Hints    []HintEntry
	Votes    []VoteEntry
}

type HintEntry struct {
	PlayerID int
	Emoji    string
	DBID     uint
}

type VoteEntry struct {
	VoterID  int
	TargetID int
	DBID     uint
}

type EventPayload struct {
	RoomCode   string `json:"room_code,omitempty"`
	Phase      Phase  `json:"phase,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Round      int    `json:"round,omitempty"`
	PlayerID   int    `json:"player_id,omitempty"`
	PlayerName string `json:"player_name,omitempty"`
	TargetID   int    `json:"target_id,omitempty"`
	Emoji      string `json:"emoji,omitempty"`
	WolfWon    bool   `json:"wolf_won,omitempty"`
}
