package server

import (
	"log"
	"sort"

	"emoji-wolf/internal/db"
)

// RestoreActiveRooms loads persisted rooms back into the in-memory store
// after a restart. Restored players keep their database IDs as their room
// IDs so sessions referencing them keep working.
func (s *Server) RestoreActiveRooms() error {
	if s.db == nil {
		return nil
	}
	var records []db.Room
	if err := s.db.Order("id asc").Find(&records).Error; err != nil {
		return err
	}
	restored := 0
	for _, record := range records {
		if _, exists := s.store.GetRoom(record.Code); exists {
			continue
		}
		room, err := s.buildRoomFromRecord(record)
		if err != nil {
			log.Printf("room restore failed room_code=%s error=%v", record.Code, err)
			continue
		}
		if err := s.store.RestoreRoom(room); err != nil {
			log.Printf("room restore rejected room_code=%s error=%v", record.Code, err)
			continue
		}
		restored++
	}
	if restored > 0 {
		log.Printf("rooms restored count=%d", restored)
	}
	return nil
}

func (s *Server) buildRoomFromRecord(record db.Room) (*Room, error) {
	phase := Phase(record.Phase)
	if !phase.Valid() {
		phase = PhaseLobby
	}
	room := &Room{
		Code:         record.Code,
		DBID:         record.ID,
		Phase:        phase,
		RoundCount:   record.RoundCount,
		HintDeadline: record.HintDeadline,
		VoteDeadline: record.VoteDeadline,
	}

	players, err := s.loadPlayers(record.ID)
	if err != nil {
		return nil, err
	}
	room.Players = buildPlayers(players, room)

	rounds, err := s.loadRounds(record.ID)
	if err != nil {
		return nil, err
	}
	roundIDs := make([]uint, 0, len(rounds))
	for _, round := range rounds {
		roundIDs = append(roundIDs, round.ID)
	}
	hints, votes, err := s.loadRoundAssets(roundIDs)
	if err != nil {
		return nil, err
	}
	room.Rounds = buildRounds(rounds, hints, votes)
	return room, nil
}

func (s *Server) loadPlayers(roomDBID uint) ([]db.Player, error) {
	var players []db.Player
	if err := s.db.Where("room_id = ?", roomDBID).Order("joined_at asc").Find(&players).Error; err != nil {
		return nil, err
	}
	return players, nil
}

func (s *Server) loadRounds(roomDBID uint) ([]db.Round, error) {
	var rounds []db.Round
	if err := s.db.Where("room_id = ?", roomDBID).Order("number asc").Find(&rounds).Error; err != nil {
		return nil, err
	}
	return rounds, nil
}

func (s *Server) loadRoundAssets(roundIDs []uint) ([]db.Hint, []db.Vote, error) {
	if len(roundIDs) == 0 {
		return nil, nil, nil
	}
	var hints []db.Hint
	if err := s.db.Where("round_id IN ?", roundIDs).Order("id asc").Find(&hints).Error; err != nil {
		return nil, nil, err
	}
	var votes []db.Vote
	if err := s.db.Where("round_id IN ?", roundIDs).Order("id asc").Find(&votes).Error; err != nil {
		return nil, nil, err
	}
	return hints, votes, nil
}

func buildPlayers(records []db.Player, room *Room) []Player {
	players := make([]Player, 0, len(records))
	for _, record := range records {
		player := Player{
			ID:     int(record.ID),
			DBID:   record.ID,
			Name:   record.Name,
			IsHost: record.IsHost,
			Score:  record.Score,
		}
		players = append(players, player)
		if record.IsHost {
			room.HostID = player.ID
		}
	}
	return players
}

func buildRounds(rounds []db.Round, hints []db.Hint, votes []db.Vote) []RoundState {
	hintsByRound := map[uint][]db.Hint{}
	for _, hint := range hints {
		hintsByRound[hint.RoundID] = append(hintsByRound[hint.RoundID], hint)
	}
	votesByRound := map[uint][]db.Vote{}
	for _, vote := range votes {
		votesByRound[vote.RoundID] = append(votesByRound[vote.RoundID], vote)
	}

	states := make([]RoundState, 0, len(rounds))
	for _, round := range rounds {
		state := RoundState{
			Number:   round.Number,
			DBID:     round.ID,
			Topic:    round.Topic,
			SpyTopic: round.SpyTopic,
		}
		if round.SpyPlayerID != nil {
			state.SpyID = int(*round.SpyPlayerID)
		}

		hintRecords := hintsByRound[round.ID]
		sort.SliceStable(hintRecords, func(i, j int) bool {
			return hintRecords[i].CreatedAt.Before(hintRecords[j].CreatedAt)
		})
		for _, hint := range hintRecords {
			state.Hints = append(state.Hints, HintEntry{
				PlayerID: int(hint.PlayerID),
				Emoji:    hint.ContentEmoji,
				DBID:     hint.ID,
			})
		}

		voteRecords := votesByRound[round.ID]
		sort.SliceStable(voteRecords, func(i, j int) bool {
			return voteRecords[i].CreatedAt.Before(voteRecords[j].CreatedAt)
		})
		for _, vote := range voteRecords {
			state.Votes = append(state.Votes, VoteEntry{
				VoterID:  int(vote.VoterID),
				TargetID: int(vote.TargetPlayerID),
				DBID:     vote.ID,
			})
		}

		states = append(states, state)
	}
	return states
}
