package server

import "time"

// The round lifecycle is pull-based: no timer fires at a deadline.
// Deadlines are stored timestamps interpreted by maybeAutoAdvance, which
// runs inside the store lock on every pulse or room read. A transition is
// guaranteed to have happened only by the time some request after the
// deadline has been handled, never at the deadline instant itself.

func latestRound(room *Room) *RoundState {
	if len(room.Rounds) == 0 {
		return nil
	}
	return &room.Rounds[len(room.Rounds)-1]
}

func setPhase(room *Room, phase Phase) {
	room.Phase = phase
}

func (s *Server) hintWindow() time.Duration {
	return time.Duration(s.cfg.HintDurationSeconds) * time.Second
}

func (s *Server) voteWindow() time.Duration {
	return time.Duration(s.cfg.VoteDurationSeconds) * time.Second
}

func (s *Server) requireHost(room *Room, callerID int) error {
	player, ok := s.store.FindPlayer(room, callerID)
	if !ok {
		return ErrNotJoined
	}
	if !player.IsHost {
		return ErrPermissionDenied
	}
	return nil
}

// beginRound starts the first round: lobby -> hint.
func (s *Server) beginRound(room *Room, callerID int, now time.Time) error {
	if err := s.requireHost(room, callerID); err != nil {
		return err
	}
	if room.Phase != PhaseLobby {
		return ErrRoundInProgress
	}
	return s.openHintPhase(room, now)
}

// beginNextRound restarts at hint from result and bumps the round counter.
func (s *Server) beginNextRound(room *Room, callerID int, now time.Time) error {
	if err := s.requireHost(room, callerID); err != nil {
		return err
	}
	if room.Phase != PhaseResult {
		return ErrRoundInProgress
	}
	return s.openHintPhase(room, now)
}

func (s *Server) openHintPhase(room *Room, now time.Time) error {
	if len(room.Players) < 2 {
		return ErrInsufficientPlayers
	}
	round := newRoundState(room)
	room.Rounds = append(room.Rounds, round)
	room.RoundCount = round.Number
	setPhase(room, PhaseHint)
	deadline := now.Add(s.hintWindow())
	room.HintDeadline = &deadline
	room.VoteDeadline = nil
	return nil
}

// advanceToVote moves hint -> vote. The hint deadline is kept as history;
// only the vote deadline is (re)armed.
func (s *Server) advanceToVote(room *Room, now time.Time) {
	setPhase(room, PhaseVote)
	deadline := now.Add(s.voteWindow())
	room.VoteDeadline = &deadline
}

// advanceToResult moves vote -> result and tallies exactly once. Callers
// must hold the store lock and have checked the phase guard; the guard is
// what makes scoring idempotent.
func (s *Server) advanceToResult(room *Room) {
	if round := latestRound(room); round != nil {
		applyScores(room, round)
	}
	setPhase(room, PhaseResult)
}

func deadlinePassed(deadline *time.Time, now time.Time) bool {
	return deadline != nil && !now.Before(*deadline)
}

// Quorum counts rely on hints and votes being upserted per player, so
// slice length equals the number of distinct submitters.
func hintQuorumReached(room *Room, round *RoundState) bool {
	return len(room.Players) >= 2 && len(round.Hints) >= len(room.Players)
}

func voteQuorumReached(room *Room, round *RoundState) bool {
	return len(room.Players) >= 2 && len(round.Votes) >= len(room.Players)
}

// maybeAutoAdvance applies at most one forward transition when the current
// phase's deadline has passed or its quorum is complete. It reports whether
// the room moved.
func (s *Server) maybeAutoAdvance(room *Room, now time.Time) bool {
	round := latestRound(room)
	if round == nil {
		return false
	}
	switch room.Phase {
	case PhaseHint:
		if room.HintDeadline == nil {
			deadline := now.Add(s.hintWindow())
			room.HintDeadline = &deadline
		}
		if deadlinePassed(room.HintDeadline, now) || hintQuorumReached(room, round) {
			s.advanceToVote(room, now)
			return true
		}
	case PhaseVote:
		if room.VoteDeadline == nil {
			deadline := now.Add(s.voteWindow())
			room.VoteDeadline = &deadline
		}
		if deadlinePassed(room.VoteDeadline, now) || voteQuorumReached(room, round) {
			s.advanceToResult(room)
			return true
		}
	}
	return false
}
