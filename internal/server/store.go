package server

import (
	"sort"
	"sync"
	"time"
)

// Store is the authoritative in-process state, keyed by room code.
// UpdateRoom closures are the atomic read-modify-write unit: every
// mutating operation reads the current phase, validates, and writes
// under the same lock, so concurrent pulses and host actions resolve
// to last-committer-wins with phase-guard checks inside the closure.
type Store struct {
	mu           sync.Mutex
	nextPlayerID int
	rooms        map[string]*Room
}

func NewStore() *Store {
	return &Store{
		nextPlayerID: 1,
		rooms:        make(map[string]*Room),
	}
}

// CreateRoom creates a lobby room with a fresh join code and its host player.
func (s *Store) CreateRoom(hostName string) (*Room, *Player) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code := newRoomCode()
	for {
		if _, taken := s.rooms[code]; !taken {
			break
		}
		code = newRoomCode()
	}
	host := Player{
		ID:     s.nextPlayerID,
		Name:   hostName,
		IsHost: true,
	}
	s.nextPlayerID++
	room := &Room{
		Code:    code,
		Phase:   PhaseLobby,
		HostID:  host.ID,
		Players: []Player{host},
	}
	s.rooms[code] = room
	return room, &room.Players[0]
}

func (s *Store) GetRoom(code string) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[code]
	return room, ok
}

func (s *Store) UpdateRoom(code string, update func(room *Room) error) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if err := update(room); err != nil {
		return nil, err
	}
	return room, nil
}

// AddPlayer joins a player to a room. Names are unique per room; joining
// is allowed in any phase, matching the operation contract.
func (s *Store) AddPlayer(code, name string) (*Room, *Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[code]
	if !ok {
		return nil, nil, ErrRoomNotFound
	}
	for i := range room.Players {
		if room.Players[i].Name == name {
			return nil, nil, ErrDuplicateName
		}
	}
	player := Player{
		ID:     s.nextPlayerID,
		Name:   name,
		IsHost: len(room.Players) == 0,
	}
	s.nextPlayerID++
	room.Players = append(room.Players, player)
	if player.IsHost {
		room.HostID = player.ID
	}
	return room, &room.Players[len(room.Players)-1], nil
}

// RestoreRoom registers a room rebuilt from the database. Player IDs in
// the restored room must already be assigned; the ID counter is bumped
// past the highest one seen.
func (s *Store) RestoreRoom(room *Room) error {
	if room == nil {
		return ErrRoomNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[room.Code]; ok {
		return ErrRoundInProgress
	}
	s.rooms[room.Code] = room
	for _, player := range room.Players {
		if player.ID >= s.nextPlayerID {
			s.nextPlayerID = player.ID + 1
		}
	}
	return nil
}

func (s *Store) ListRoomSummaries() []RoomSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]RoomSummary, 0, len(s.rooms))
	for _, room := range s.rooms {
		list = append(list, RoomSummary{
			Code:    room.Code,
			Phase:   room.Phase,
			Players: len(room.Players),
		})
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Code < list[j].Code
	})
	return list
}

func (s *Store) FindPlayer(room *Room, playerID int) (*Player, bool) {
	for i := range room.Players {
		if room.Players[i].ID == playerID {
			return &room.Players[i], true
		}
	}
	return nil, false
}

func (s *Store) FindPlayerByDBID(room *Room, dbID uint) (*Player, bool) {
	if dbID == 0 {
		return nil, false
	}
	for i := range room.Players {
		if room.Players[i].DBID == dbID {
			return &room.Players[i], true
		}
	}
	return nil, false
}

func (s *Store) FindPlayerByName(room *Room, name string) (*Player, bool) {
	for i := range room.Players {
		if room.Players[i].Name == name {
			return &room.Players[i], true
		}
	}
	return nil, false
}

func timeNowUTC() time.Time {
	return time.Now().UTC()
}
