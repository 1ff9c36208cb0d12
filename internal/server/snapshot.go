package server

import (
	"sort"
	"strconv"
	"time"
)

// snapshot builds the phase-appropriate room view. During the hint phase
// other players' hint content is hidden (only submission status shows);
// the vote phase exposes all hints and the candidate list excluding the
// caller; the result phase exposes the full tally and the spy. caller may
// be nil for spectators (websocket observers), who never see topics.
func (s *Server) snapshot(room *Room, caller *Player) map[string]any {
	view := map[string]any{
		"room_code":        room.Code,
		"phase":            room.Phase,
		"round":            room.RoundCount,
		"players":          playersPayload(room),
		"hint_deadline_ms": deadlineMS(room.HintDeadline),
		"vote_deadline_ms": deadlineMS(room.VoteDeadline),
	}
	if caller != nil {
		view["me"] = map[string]any{
			"id":      caller.ID,
			"name":    caller.Name,
			"is_host": caller.IsHost,
		}
	}
	round := latestRound(room)
	if round == nil {
		return view
	}

	switch room.Phase {
	case PhaseHint:
		callerID := 0
		if caller != nil {
			callerID = caller.ID
		}
		view["hints"] = hintsPayload(round, false, callerID)
		if caller != nil {
			view["my_topic"] = topicForPlayer(round, caller.ID)
			if entry, ok := hintByPlayer(round, caller.ID); ok {
				view["my_hint"] = entry.Emoji
			}
		}
	case PhaseVote:
		view["hints"] = hintsPayload(round, true, 0)
		if caller != nil {
			view["my_topic"] = topicForPlayer(round, caller.ID)
			view["candidates"] = candidatesPayload(room, caller.ID)
			if target, ok := voteByPlayer(round, caller.ID); ok {
				view["my_vote"] = target
			}
		}
	case PhaseResult:
		view["hints"] = hintsPayload(round, true, 0)
		view["votes"] = votesPayload(round)
		view["tally"] = tallyPayload(round)
		view["wolf_won"] = wolfWon(round)
		view["scores"] = scoresPayload(room)
		if spy, ok := s.store.FindPlayer(room, round.SpyID); ok {
			view["spy"] = map[string]any{
				"id":    spy.ID,
				"name":  spy.Name,
				"topic": round.SpyTopic,
			}
		}
		view["topic"] = round.Topic
	}
	return view
}

func playersPayload(room *Room) []map[string]any {
	players := make([]map[string]any, 0, len(room.Players))
	for _, player := range room.Players {
		players = append(players, map[string]any{
			"id":      player.ID,
			"name":    player.Name,
			"is_host": player.IsHost,
			"score":   player.Score,
		})
	}
	return players
}

// hintsPayload lists hints in submission order. With includeContent false
// only the submitter and status are exposed, except the caller's own entry.
func hintsPayload(round *RoundState, includeContent bool, callerID int) []map[string]any {
	hints := make([]map[string]any, 0, len(round.Hints))
	for _, entry := range round.Hints {
		item := map[string]any{
			"player_id": entry.PlayerID,
			"submitted": true,
		}
		if includeContent || entry.PlayerID == callerID {
			item["emoji"] = entry.Emoji
		}
		hints = append(hints, item)
	}
	return hints
}

func hintByPlayer(round *RoundState, playerID int) (HintEntry, bool) {
	for _, entry := range round.Hints {
		if entry.PlayerID == playerID {
			return entry, true
		}
	}
	return HintEntry{}, false
}

func voteByPlayer(round *RoundState, voterID int) (int, bool) {
	for _, entry := range round.Votes {
		if entry.VoterID == voterID {
			return entry.TargetID, true
		}
	}
	return 0, false
}

func candidatesPayload(room *Room, callerID int) []map[string]any {
	candidates := make([]map[string]any, 0, len(room.Players))
	for _, player := range room.Players {
		if player.ID == callerID {
			continue
		}
		candidates = append(candidates, map[string]any{
			"id":   player.ID,
			"name": player.Name,
		})
	}
	return candidates
}

func votesPayload(round *RoundState) []map[string]any {
	votes := make([]map[string]any, 0, len(round.Votes))
	for _, entry := range round.Votes {
		votes = append(votes, map[string]any{
			"voter_id":  entry.VoterID,
			"target_id": entry.TargetID,
		})
	}
	return votes
}

func tallyPayload(round *RoundState) map[string]int {
	tally := make(map[string]int)
	for target, count := range voteTally(round) {
		tally[strconv.Itoa(target)] = count
	}
	return tally
}

func scoresPayload(room *Room) []map[string]any {
	players := make([]Player, len(room.Players))
	copy(players, room.Players)
	sort.SliceStable(players, func(i, j int) bool {
		if players[i].Score != players[j].Score {
			return players[i].Score > players[j].Score
		}
		return players[i].ID < players[j].ID
	})
	scores := make([]map[string]any, 0, len(players))
	for _, player := range players {
		scores = append(scores, map[string]any{
			"player_id": player.ID,
			"name":      player.Name,
			"score":     player.Score,
		})
	}
	return scores
}

func deadlineMS(deadline *time.Time) int64 {
	if deadline == nil {
		return 0
	}
	return deadline.UnixMilli()
}
