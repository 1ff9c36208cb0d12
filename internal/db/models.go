package db

import (
	"time"

	"gorm.io/datatypes"
)

type Room struct {
	ID           uint       `gorm:"primaryKey"`
	Code         string     `gorm:"size:12;uniqueIndex;not null"`
	Phase        string     `gorm:"size:32;not null"`
	RoundCount   int        `gorm:"not null;default:0"`
	HintDeadline *time.Time `gorm:"index"`
	VoteDeadline *time.Time
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
	Players      []Player
	Rounds       []Round
	Events       []Event
}

type Player struct {
	ID        uint      `gorm:"primaryKey"`
	RoomID    uint      `gorm:"index;not null;uniqueIndex:idx_players_room_name"`
	Name      string    `gorm:"size:64;not null;uniqueIndex:idx_players_room_name"`
	IsHost    bool      `gorm:"not null;default:false"`
	Score     int       `gorm:"not null;default:0"`
	JoinedAt  time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	Hints     []Hint    `gorm:"foreignKey:PlayerID"`
	Votes     []Vote    `gorm:"foreignKey:VoterID"`
}

type Round struct {
	ID          uint      `gorm:"primaryKey"`
	RoomID      uint      `gorm:"index;not null"`
	Number      int       `gorm:"not null"`
	Topic       string    `gorm:"size:128;not null"`
	SpyTopic    string    `gorm:"size:128;not null"`
	SpyPlayerID *uint     `gorm:"index"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
	Hints       []Hint
	Votes       []Vote
}

type Hint struct {
	ID           uint      `gorm:"primaryKey"`
	RoundID      uint      `gorm:"index;not null;uniqueIndex:idx_hints_round_player"`
	PlayerID     uint      `gorm:"index;not null;uniqueIndex:idx_hints_round_player"`
	ContentEmoji string    `gorm:"size:64;not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

type Vote struct {
	ID             uint      `gorm:"primaryKey"`
	RoundID        uint      `gorm:"index;not null;uniqueIndex:idx_votes_round_voter"`
	VoterID        uint      `gorm:"index;not null;uniqueIndex:idx_votes_round_voter"`
	TargetPlayerID uint      `gorm:"index;not null"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

type Session struct {
	ID         string    `gorm:"primaryKey;size:64"`
	RoomCode   string    `gorm:"size:12"`
	PlayerRef  int       `gorm:"not null;default:0"`
	PlayerName string    `gorm:"size:64"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

type Event struct {
	ID        uint           `gorm:"primaryKey"`
	RoomID    uint           `gorm:"index;not null"`
	RoundID   *uint          `gorm:"index"`
	PlayerID  *uint          `gorm:"index"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
}
