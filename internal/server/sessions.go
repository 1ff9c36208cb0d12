package server

import (
	"crypto/rand"
	"fmt"
	"net/http"
	"sync"
	"time"

	"emoji-wolf/internal/db"

	"gorm.io/gorm"
)

const sessionCookie = "ww_session"

// sessionStore keeps the per-browser identity token. Backed by the
// database when one is configured, with an in-memory fallback otherwise
// (tests and persistence-free runs).
type sessionStore struct {
	db       *gorm.DB
	mu       sync.Mutex
	sessions map[string]sessionData
}

type sessionData struct {
	RoomCode   string
	PlayerRef  int // player's database id; zero when running without persistence
	PlayerName string
}

func newSessionStore(conn *gorm.DB) *sessionStore {
	return &sessionStore{
		db:       conn,
		sessions: make(map[string]sessionData),
	}
}

func (s *sessionStore) SetIdentity(w http.ResponseWriter, r *http.Request, roomCode string, playerID int, name string) {
	id := s.ensureSessionID(w, r)
	if s.db == nil {
		s.mu.Lock()
		s.sessions[id] = sessionData{
			RoomCode:   roomCode,
			PlayerRef:  playerID,
			PlayerName: name,
		}
		s.mu.Unlock()
		return
	}
	record := db.Session{
		ID:         id,
		RoomCode:   roomCode,
		PlayerRef:  playerID,
		PlayerName: name,
	}
	_ = s.db.Save(&record).Error
}

func (s *sessionStore) Identity(w http.ResponseWriter, r *http.Request) sessionData {
	id := s.ensureSessionID(w, r)
	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.sessions[id]
	}
	var record db.Session
	if err := s.db.Where("id = ?", id).First(&record).Error; err != nil {
		return sessionData{}
	}
	return sessionData{
		RoomCode:   record.RoomCode,
		PlayerRef:  record.PlayerRef,
		PlayerName: record.PlayerName,
	}
}

func (s *sessionStore) ensureSessionID(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(sessionCookie)
	if err == nil && cookie.Value != "" {
		return cookie.Value
	}
	id := newSessionID()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func newSessionID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("sess-%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("%x", buf)
}

// callerClaims carries one request's identity evidence. Claims are read
// before any store lock is taken: the session lookup may hit the database
// and must never run under the store mutex.
type callerClaims struct {
	playerID int
	session  sessionData
}

func (s *Server) callerIdentity(w http.ResponseWriter, r *http.Request, bodyPlayerID int) callerClaims {
	claims := callerClaims{playerID: bodyPlayerID}
	if bodyPlayerID <= 0 {
		claims.session = s.sessions.Identity(w, r)
	}
	return claims
}

// findCaller maps claims to a player using room state only, so it is safe
// inside an UpdateRoom closure. An explicit player id in the request body
// wins; otherwise the session's stored database id is tried, then the
// name. Sessions reference players by database id because restored rooms
// re-key players to those ids; in-memory counter ids are process-local
// and must never be trusted across a restart.
func (s *Server) findCaller(room *Room, claims callerClaims) (*Player, bool) {
	if claims.playerID > 0 {
		return s.store.FindPlayer(room, claims.playerID)
	}
	ident := claims.session
	if ident.RoomCode != "" && ident.RoomCode != room.Code {
		return nil, false
	}
	if ident.PlayerRef != 0 {
		if player, ok := s.store.FindPlayerByDBID(room, uint(ident.PlayerRef)); ok {
			return player, true
		}
	}
	if ident.PlayerName != "" {
		if player, ok := s.store.FindPlayerByName(room, ident.PlayerName); ok {
			return player, true
		}
	}
	return nil, false
}
