package server

const (
	citizenCorrectPoints = 1
	wolfEscapePoints     = 3
)

// wolfSet returns the players holding the minority topic. Singleton today;
// the tally below already iterates over a set so a multi-spy variant only
// needs to change this function.
func wolfSet(round *RoundState) map[int]struct{} {
	wolves := make(map[int]struct{})
	if round != nil && round.SpyID != 0 {
		wolves[round.SpyID] = struct{}{}
	}
	return wolves
}

func correctVoters(round *RoundState) map[int]struct{} {
	wolves := wolfSet(round)
	correct := make(map[int]struct{})
	for _, vote := range round.Votes {
		if _, ok := wolves[vote.TargetID]; ok {
			correct[vote.VoterID] = struct{}{}
		}
	}
	return correct
}

// wolfWon reports the display verdict: zero distinct correct voters.
func wolfWon(round *RoundState) bool {
	if round == nil {
		return false
	}
	return len(correctVoters(round)) == 0
}

// applyScores awards points for the round. Must run at most once per round,
// which the vote -> result phase guard enforces. Priority order: no votes
// at all pays the wolves (and tolerates a missing spy), then any correct
// voters each earn a point, otherwise the wolves escape with three.
func applyScores(room *Room, round *RoundState) {
	wolves := wolfSet(round)
	if len(round.Votes) == 0 {
		awardAll(room, wolves, wolfEscapePoints)
		return
	}
	correct := correctVoters(round)
	if len(correct) > 0 {
		awardAll(room, correct, citizenCorrectPoints)
		return
	}
	awardAll(room, wolves, wolfEscapePoints)
}

func awardAll(room *Room, playerIDs map[int]struct{}, points int) {
	for i := range room.Players {
		if _, ok := playerIDs[room.Players[i].ID]; ok {
			room.Players[i].Score += points
		}
	}
}

// voteTally counts votes per target for the result view.
func voteTally(round *RoundState) map[int]int {
	tally := make(map[int]int)
	if round == nil {
		return tally
	}
	for _, vote := range round.Votes {
		tally[vote.TargetID]++
	}
	return tally
}
