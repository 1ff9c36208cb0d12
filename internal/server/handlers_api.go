package server

import (
	"log"
	"net/http"
	"strconv"

	"emoji-wolf/internal/db"
)

type createRoomRequest struct {
	Name string `json:"name" validate:"required,playername"`
}

type joinRequest struct {
	Name string `json:"name" validate:"required,playername"`
}

type hostRequest struct {
	PlayerID int `json:"player_id"`
}

type hintRequest struct {
	PlayerID int    `json:"player_id"`
	Emoji    string `json:"emoji" validate:"required"`
}

type voteRequest struct {
	PlayerID int `json:"player_id"`
	TargetID int `json:"target_id" validate:"required,gt=0"`
}

func (s *Server) handleRoomSubroutes(w http.ResponseWriter, r *http.Request) {
	code, action, ok := parseRoomPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		switch action {
		case "":
			s.handleGetRoom(w, r, code)
		case "pulse":
			s.handlePulse(w, r, code)
		case "events":
			s.handleEvents(w, r, code)
		default:
			http.NotFound(w, r)
		}
	case http.MethodPost:
		switch action {
		case "join":
			s.handleJoinRoom(w, r, code)
		case "start":
			s.handleStartRound(w, r, code)
		case "next":
			s.handleNextRound(w, r, code)
		case "hints":
			s.handleSubmitHint(w, r, code)
		case "lock":
			s.handleLockHints(w, r, code)
		case "votes":
			s.handleSubmitVote(w, r, code)
		case "close":
			s.handleCloseVote(w, r, code)
		default:
			http.NotFound(w, r)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "name is invalid")
		return
	}
	name, err := validateName(req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	room, host := s.store.CreateRoom(name)
	if err := s.persistRoom(room); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create room")
		return
	}
	if _, err := s.persistPlayer(room, host); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create room")
		return
	}
	s.sessions.SetIdentity(w, r, room.Code, int(host.DBID), host.Name)
	log.Printf("room created room_code=%s host=%s", room.Code, host.Name)
	writeJSON(w, http.StatusCreated, map[string]any{
		"room_code": room.Code,
		"player_id": host.ID,
	})
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	summaries := make([]map[string]any, 0)
	for _, room := range s.store.ListRoomSummaries() {
		summaries = append(summaries, map[string]any{
			"room_code": room.Code,
			"phase":     room.Phase,
			"players":   room.Players,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": summaries})
}

func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request, code string) {
	var req joinRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "name is invalid")
		return
	}
	name, err := validateName(req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	room, player, err := s.store.AddPlayer(code, name)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if _, err := s.persistPlayer(room, player); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to join room")
		return
	}
	s.sessions.SetIdentity(w, r, room.Code, int(player.DBID), player.Name)
	log.Printf("player joined room_code=%s player_id=%d player_name=%s", room.Code, player.ID, name)
	writeJSON(w, http.StatusOK, map[string]any{
		"room_code": room.Code,
		"player_id": player.ID,
		"name":      player.Name,
	})
	s.broadcastRoomUpdate(room)
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request, code string) {
	room, _, err := s.pulseRoom(code)
	if err != nil {
		writeFailure(w, err)
		return
	}
	callerID := 0
	if raw := r.URL.Query().Get("player_id"); raw != "" {
		callerID, _ = strconv.Atoi(raw)
	}
	claims := s.callerIdentity(w, r, callerID)
	caller, _ := s.findCaller(room, claims)
	writeJSON(w, http.StatusOK, s.snapshot(room, caller))
}

// handlePulse evaluates lazy auto-advancement, then compares the room's
// phase to the caller's last-known one.
func (s *Server) handlePulse(w http.ResponseWriter, r *http.Request, code string) {
	room, _, err := s.pulseRoom(code)
	if err != nil {
		writeFailure(w, err)
		return
	}
	known := Phase(r.URL.Query().Get("phase"))
	writeJSON(w, http.StatusOK, map[string]any{
		"changed": known != room.Phase,
		"phase":   room.Phase,
	})
}

// pulseRoom runs the auto-advance check inside the store lock and handles
// the persistence and broadcast fallout of any transition it applied.
func (s *Server) pulseRoom(code string) (*Room, bool, error) {
	var from Phase
	room, err := s.store.UpdateRoom(code, func(room *Room) error {
		from = room.Phase
		s.maybeAutoAdvance(room, timeNowUTC())
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if room.Phase == from {
		return room, false, nil
	}
	if room.Phase == PhaseResult {
		if err := s.persistScores(room); err != nil {
			log.Printf("auto-advance persist scores failed room_code=%s error=%v", room.Code, err)
		}
	}
	if err := s.persistPhase(room, "phase_advanced", EventPayload{Phase: room.Phase, Reason: "auto"}); err != nil {
		log.Printf("auto-advance persist phase failed room_code=%s error=%v", room.Code, err)
	}
	log.Printf("room auto-advanced room_code=%s from=%s to=%s", room.Code, from, room.Phase)
	s.broadcastRoomUpdate(room)
	return room, true, nil
}

func (s *Server) handleStartRound(w http.ResponseWriter, r *http.Request, code string) {
	var req hostRequest
	_ = readJSON(r.Body, &req)
	claims := s.callerIdentity(w, r, req.PlayerID)
	callerID := 0
	room, err := s.store.UpdateRoom(code, func(room *Room) error {
		caller, ok := s.findCaller(room, claims)
		if !ok {
			return ErrNotJoined
		}
		callerID = caller.ID
		return s.beginRound(room, caller.ID, timeNowUTC())
	})
	if err != nil {
		writeFailure(w, err)
		return
	}
	if err := s.persistRound(room); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to start round")
		return
	}
	if err := s.persistPhase(room, "round_started", EventPayload{Phase: room.Phase, Round: room.RoundCount}); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to start round")
		return
	}
	log.Printf("round started room_code=%s phase=%s", room.Code, room.Phase)
	caller, _ := s.store.FindPlayer(room, callerID)
	writeJSON(w, http.StatusOK, s.snapshot(room, caller))
	s.broadcastRoomUpdate(room)
}

func (s *Server) handleNextRound(w http.ResponseWriter, r *http.Request, code string) {
	var req hostRequest
	_ = readJSON(r.Body, &req)
	claims := s.callerIdentity(w, r, req.PlayerID)
	callerID := 0
	room, err := s.store.UpdateRoom(code, func(room *Room) error {
		caller, ok := s.findCaller(room, claims)
		if !ok {
			return ErrNotJoined
		}
		callerID = caller.ID
		return s.beginNextRound(room, caller.ID, timeNowUTC())
	})
	if err != nil {
		writeFailure(w, err)
		return
	}
	if err := s.persistRound(room); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to start round")
		return
	}
	if err := s.persistPhase(room, "next_round_started", EventPayload{Phase: room.Phase, Round: room.RoundCount}); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to start round")
		return
	}
	log.Printf("next round started room_code=%s round=%d", room.Code, room.RoundCount)
	caller, _ := s.store.FindPlayer(room, callerID)
	writeJSON(w, http.StatusOK, s.snapshot(room, caller))
	s.broadcastRoomUpdate(room)
}

func (s *Server) handleSubmitHint(w http.ResponseWriter, r *http.Request, code string) {
	var req hintRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "emoji is required")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "emoji is required")
		return
	}
	payload, err := normalizeHintPayload(req.Emoji)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	claims := s.callerIdentity(w, r, req.PlayerID)
	callerID := 0
	room, err := s.store.UpdateRoom(code, func(room *Room) error {
		caller, ok := s.findCaller(room, claims)
		if !ok {
			return ErrNotJoined
		}
		callerID = caller.ID
		if room.Phase != PhaseHint {
			return ErrHintsClosed
		}
		round := latestRound(room)
		if round == nil {
			return ErrRoundNotStarted
		}
		for _, entry := range round.Hints {
			if entry.Emoji == payload && entry.PlayerID != caller.ID {
				return ErrDuplicateHint
			}
		}
		for i := range round.Hints {
			if round.Hints[i].PlayerID == caller.ID {
				round.Hints[i].Emoji = payload
				return nil
			}
		}
		round.Hints = append(round.Hints, HintEntry{PlayerID: caller.ID, Emoji: payload})
		return nil
	})
	if err != nil {
		writeFailure(w, err)
		return
	}
	if err := s.persistHint(room, callerID, payload); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save hint")
		return
	}
	log.Printf("hint submitted room_code=%s player_id=%d", room.Code, callerID)
	caller, _ := s.store.FindPlayer(room, callerID)
	writeJSON(w, http.StatusOK, s.snapshot(room, caller))
	s.broadcastRoomUpdate(room)
}

// handleLockHints is the host's manual hint -> vote transition. If another
// request already advanced the room, the lock is treated as a successful
// observation of the current phase, not an error.
func (s *Server) handleLockHints(w http.ResponseWriter, r *http.Request, code string) {
	var req hostRequest
	_ = readJSON(r.Body, &req)
	claims := s.callerIdentity(w, r, req.PlayerID)
	callerID := 0
	var from Phase
	room, err := s.store.UpdateRoom(code, func(room *Room) error {
		caller, ok := s.findCaller(room, claims)
		if !ok {
			return ErrNotJoined
		}
		callerID = caller.ID
		if err := s.requireHost(room, caller.ID); err != nil {
			return err
		}
		from = room.Phase
		if room.Phase != PhaseHint {
			return nil
		}
		s.advanceToVote(room, timeNowUTC())
		return nil
	})
	if err != nil {
		writeFailure(w, err)
		return
	}
	if from == PhaseHint && room.Phase == PhaseVote {
		if err := s.persistPhase(room, "hints_locked", EventPayload{Phase: room.Phase, Reason: "manual"}); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to lock hints")
			return
		}
		log.Printf("hints locked room_code=%s", room.Code)
		s.broadcastRoomUpdate(room)
	}
	caller, _ := s.store.FindPlayer(room, callerID)
	writeJSON(w, http.StatusOK, s.snapshot(room, caller))
}

func (s *Server) handleSubmitVote(w http.ResponseWriter, r *http.Request, code string) {
	var req voteRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "target_id is required")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "target_id is required")
		return
	}

	claims := s.callerIdentity(w, r, req.PlayerID)
	callerID := 0
	room, err := s.store.UpdateRoom(code, func(room *Room) error {
		caller, ok := s.findCaller(room, claims)
		if !ok {
			return ErrNotJoined
		}
		callerID = caller.ID
		if room.Phase != PhaseVote {
			return ErrVotesClosed
		}
		round := latestRound(room)
		if round == nil {
			return ErrRoundNotStarted
		}
		if req.TargetID == caller.ID {
			return ErrSelfVote
		}
		if _, ok := s.store.FindPlayer(room, req.TargetID); !ok {
			return ErrTargetNotFound
		}
		for i := range round.Votes {
			if round.Votes[i].VoterID == caller.ID {
				round.Votes[i].TargetID = req.TargetID
				return nil
			}
		}
		round.Votes = append(round.Votes, VoteEntry{VoterID: caller.ID, TargetID: req.TargetID})
		return nil
	})
	if err != nil {
		writeFailure(w, err)
		return
	}
	if err := s.persistVote(room, callerID, req.TargetID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save vote")
		return
	}
	log.Printf("vote submitted room_code=%s player_id=%d", room.Code, callerID)
	caller, _ := s.store.FindPlayer(room, callerID)
	writeJSON(w, http.StatusOK, s.snapshot(room, caller))
	s.broadcastRoomUpdate(room)
}

// handleCloseVote is the host's manual vote -> result transition. The phase
// guard doubles as the tally-once guard; closing an already-resolved round
// is an observation, never a re-tally.
func (s *Server) handleCloseVote(w http.ResponseWriter, r *http.Request, code string) {
	var req hostRequest
	_ = readJSON(r.Body, &req)
	claims := s.callerIdentity(w, r, req.PlayerID)
	callerID := 0
	var from Phase
	room, err := s.store.UpdateRoom(code, func(room *Room) error {
		caller, ok := s.findCaller(room, claims)
		if !ok {
			return ErrNotJoined
		}
		callerID = caller.ID
		if err := s.requireHost(room, caller.ID); err != nil {
			return err
		}
		from = room.Phase
		if room.Phase != PhaseVote {
			return nil
		}
		s.advanceToResult(room)
		return nil
	})
	if err != nil {
		writeFailure(w, err)
		return
	}
	if from == PhaseVote && room.Phase == PhaseResult {
		if err := s.persistScores(room); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to save scores")
			return
		}
		payload := EventPayload{Phase: room.Phase, Reason: "manual"}
		if round := latestRound(room); round != nil {
			payload.WolfWon = wolfWon(round)
		}
		if err := s.persistPhase(room, "vote_closed", payload); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to close vote")
			return
		}
		log.Printf("vote closed room_code=%s wolf_won=%t", room.Code, payload.WolfWon)
		s.broadcastRoomUpdate(room)
	}
	caller, _ := s.store.FindPlayer(room, callerID)
	writeJSON(w, http.StatusOK, s.snapshot(room, caller))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request, code string) {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "events not available")
		return
	}
	room, ok := s.store.GetRoom(code)
	if !ok {
		writeFailure(w, ErrRoomNotFound)
		return
	}
	if room.DBID == 0 {
		if err := s.ensureRoomDBID(room); err != nil || room.DBID == 0 {
			writeError(w, http.StatusInternalServerError, "failed to load room")
			return
		}
	}
	var records []db.Event
	if err := s.db.Where("room_id = ?", room.DBID).Order("created_at asc").Find(&records).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load events")
		return
	}
	events := make([]map[string]any, 0, len(records))
	for _, record := range records {
		events = append(events, map[string]any{
			"id":         record.ID,
			"type":       record.Type,
			"round_id":   record.RoundID,
			"player_id":  record.PlayerID,
			"created_at": record.CreatedAt,
			"payload":    record.Payload,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"room_code": room.Code,
		"events":    events,
	})
}
