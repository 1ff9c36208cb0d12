package server

import (
	"encoding/json"
	"errors"
	"time"

	"emoji-wolf/internal/db"

	"github.com/jackc/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm/clause"
)

// The store is authoritative; these helpers mirror every mutation into
// Postgres so rooms survive a restart. All of them are no-ops without a
// configured database.

func (s *Server) persistRoom(room *Room) error {
	if s.db == nil {
		return nil
	}
	record := db.Room{
		Code:  room.Code,
		Phase: string(room.Phase),
	}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
		return err
	}
	room.DBID = record.ID
	return s.persistEvent(room, "room_created", EventPayload{RoomCode: room.Code})
}

func (s *Server) persistPlayer(room *Room, player *Player) (int, error) {
	if s.db == nil {
		return player.ID, nil
	}
	if player.DBID != 0 {
		return player.ID, nil
	}
	if room.DBID == 0 {
		if err := s.ensureRoomDBID(room); err != nil {
			return 0, err
		}
		if room.DBID == 0 {
			return 0, ErrRoomNotFound
		}
	}
	record := db.Player{
		RoomID:   room.DBID,
		Name:     player.Name,
		IsHost:   player.IsHost,
		Score:    player.Score,
		JoinedAt: time.Now().UTC(),
	}
	if err := s.db.Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			existing, lookupErr := s.findPlayerDBID(room.DBID, player.Name)
			if lookupErr == nil && existing != 0 {
				player.DBID = existing
				return player.ID, nil
			}
		}
		return 0, err
	}
	player.DBID = record.ID
	if err := s.persistEvent(room, "player_joined", EventPayload{
		PlayerID:   player.ID,
		PlayerName: player.Name,
	}); err != nil {
		return player.ID, err
	}
	return player.ID, nil
}

// persistRound writes the latest round, including its topics and spy.
func (s *Server) persistRound(room *Room) error {
	if s.db == nil {
		return nil
	}
	round := latestRound(room)
	if round == nil || round.DBID != 0 {
		return nil
	}
	if room.DBID == 0 {
		if err := s.ensureRoomDBID(room); err != nil {
			return err
		}
	}
	if room.DBID == 0 {
		return ErrRoomNotFound
	}
	record := db.Round{
		RoomID:   room.DBID,
		Number:   round.Number,
		Topic:    round.Topic,
		SpyTopic: round.SpyTopic,
	}
	if spy, ok := s.store.FindPlayer(room, round.SpyID); ok && spy.DBID != 0 {
		id := spy.DBID
		record.SpyPlayerID = &id
	}
	if err := s.db.Create(&record).Error; err != nil {
		return err
	}
	round.DBID = record.ID
	return nil
}

// persistPhase mirrors the room's phase, counter, and deadlines, then logs
// an event.
func (s *Server) persistPhase(room *Room, eventType string, payload EventPayload) error {
	if s.db == nil {
		return nil
	}
	if room.DBID == 0 {
		if err := s.ensureRoomDBID(room); err != nil {
			return err
		}
	}
	if room.DBID == 0 {
		return ErrRoomNotFound
	}
	updates := map[string]any{
		"phase":         string(room.Phase),
		"round_count":   room.RoundCount,
		"hint_deadline": room.HintDeadline,
		"vote_deadline": room.VoteDeadline,
	}
	if err := s.db.Model(&db.Room{}).Where("id = ?", room.DBID).Updates(updates).Error; err != nil {
		return err
	}
	return s.persistEvent(room, eventType, payload)
}

// persistHint upserts by (round, player): resubmission replaces content.
func (s *Server) persistHint(room *Room, playerID int, emoji string) error {
	if s.db == nil {
		return nil
	}
	round := latestRound(room)
	if round == nil {
		return ErrRoundNotStarted
	}
	if round.DBID == 0 {
		if err := s.persistRound(room); err != nil {
			return err
		}
	}
	playerDBID, err := s.playerDBID(room, playerID)
	if err != nil {
		return err
	}
	record := db.Hint{
		RoundID:      round.DBID,
		PlayerID:     playerDBID,
		ContentEmoji: emoji,
	}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "round_id"}, {Name: "player_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"content_emoji", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return err
	}
	return s.persistEvent(room, "hint_submitted", EventPayload{
		PlayerID: playerID,
		Emoji:    emoji,
	})
}

// persistVote upserts by (round, voter): resubmission replaces the target.
func (s *Server) persistVote(room *Room, voterID, targetID int) error {
	if s.db == nil {
		return nil
	}
	round := latestRound(room)
	if round == nil {
		return ErrRoundNotStarted
	}
	if round.DBID == 0 {
		if err := s.persistRound(room); err != nil {
			return err
		}
	}
	voterDBID, err := s.playerDBID(room, voterID)
	if err != nil {
		return err
	}
	targetDBID, err := s.playerDBID(room, targetID)
	if err != nil {
		return err
	}
	record := db.Vote{
		RoundID:        round.DBID,
		VoterID:        voterDBID,
		TargetPlayerID: targetDBID,
	}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "round_id"}, {Name: "voter_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"target_player_id", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return err
	}
	return s.persistEvent(room, "vote_submitted", EventPayload{
		PlayerID: voterID,
		TargetID: targetID,
	})
}

func (s *Server) persistScores(room *Room) error {
	if s.db == nil {
		return nil
	}
	for i := range room.Players {
		player := &room.Players[i]
		if player.DBID == 0 {
			if id, err := s.playerDBID(room, player.ID); err == nil {
				player.DBID = id
			} else {
				continue
			}
		}
		if err := s.db.Model(&db.Player{}).
			Where("id = ?", player.DBID).
			Update("score", player.Score).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) persistEvent(room *Room, eventType string, payload EventPayload) error {
	if s.db == nil {
		return nil
	}
	if room.DBID == 0 {
		if err := s.ensureRoomDBID(room); err != nil {
			return err
		}
	}
	if room.DBID == 0 {
		return ErrRoomNotFound
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	event := db.Event{
		RoomID:   room.DBID,
		RoundID:  s.resolveEventRoundID(room),
		PlayerID: s.resolveEventPlayerID(room, payload),
		Type:     eventType,
		Payload:  datatypes.JSON(data),
	}
	return s.db.Create(&event).Error
}

func (s *Server) resolveEventRoundID(room *Room) *uint {
	round := latestRound(room)
	if round == nil || round.DBID == 0 {
		return nil
	}
	id := round.DBID
	return &id
}

func (s *Server) resolveEventPlayerID(room *Room, payload EventPayload) *uint {
	if payload.PlayerID <= 0 {
		return nil
	}
	player, found := s.store.FindPlayer(room, payload.PlayerID)
	if found && player.DBID != 0 {
		value := player.DBID
		return &value
	}
	return nil
}

func (s *Server) ensureRoomDBID(room *Room) error {
	if s.db == nil || room.DBID != 0 {
		return nil
	}
	var record db.Room
	if err := s.db.Where("code = ?", room.Code).First(&record).Error; err != nil {
		return nil
	}
	room.DBID = record.ID
	return nil
}

func (s *Server) playerDBID(room *Room, playerID int) (uint, error) {
	player, ok := s.store.FindPlayer(room, playerID)
	if !ok {
		return 0, ErrPlayerNotFound
	}
	if player.DBID != 0 {
		return player.DBID, nil
	}
	if room.DBID == 0 {
		if err := s.ensureRoomDBID(room); err != nil {
			return 0, err
		}
	}
	id, err := s.findPlayerDBID(room.DBID, player.Name)
	if err != nil {
		return 0, err
	}
	player.DBID = id
	return id, nil
}

func (s *Server) findPlayerDBID(roomDBID uint, name string) (uint, error) {
	var record db.Player
	if err := s.db.Where("room_id = ? AND name = ?", roomDBID, name).First(&record).Error; err != nil {
		return 0, err
	}
	return record.ID, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
