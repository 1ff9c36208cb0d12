package server

import (
	"net/http"
	"testing"

	"emoji-wolf/internal/config"
)

func TestFullRoundFlow(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	roomCode, hostID := createRoom(t, ts, "Ada")
	benID := joinPlayer(t, ts, roomCode, "Ben")
	carolID := joinPlayer(t, ts, roomCode, "Carol")

	startRound(t, ts, roomCode, hostID)
	view := fetchRoom(t, ts, roomCode, hostID)
	if view["phase"] != string(PhaseHint) {
		t.Fatalf("expected hint phase, got %v", view["phase"])
	}
	if view["round"] != float64(1) {
		t.Fatalf("expected round 1, got %v", view["round"])
	}
	if view["my_topic"] == "" {
		t.Fatalf("expected a topic for the host")
	}

	for playerID, emoji := range map[int]string{
		hostID:  "🍜",
		benID:   "🍣",
		carolID: "🍕",
	} {
		resp := submitHint(t, ts, roomCode, playerID, emoji)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("hint submit for %d: expected status %d, got %d", playerID, http.StatusOK, resp.StatusCode)
		}
	}

	resp := doRequest(t, ts, http.MethodPost, "/api/rooms/"+roomCode+"/lock", map[string]any{
		"player_id": hostID,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("lock: expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	view = fetchRoom(t, ts, roomCode, hostID)
	if view["phase"] != string(PhaseVote) {
		t.Fatalf("expected vote phase after lock, got %v", view["phase"])
	}

	room, ok := srv.store.GetRoom(roomCode)
	if !ok {
		t.Fatalf("room not found")
	}
	spyID := latestRound(room).SpyID

	// Everyone votes for the spy so the citizens win deterministically.
	for _, voterID := range []int{hostID, benID, carolID} {
		if voterID == spyID {
			continue
		}
		resp := submitVote(t, ts, roomCode, voterID, spyID)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("vote by %d: expected status %d, got %d", voterID, http.StatusOK, resp.StatusCode)
		}
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/rooms/"+roomCode+"/close", map[string]any{
		"player_id": hostID,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("close: expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	view = fetchRoom(t, ts, roomCode, hostID)
	if view["phase"] != string(PhaseResult) {
		t.Fatalf("expected result phase, got %v", view["phase"])
	}
	if view["wolf_won"] != false {
		t.Fatalf("expected citizens to win, got wolf_won=%v", view["wolf_won"])
	}
	spy, ok := view["spy"].(map[string]any)
	if !ok {
		t.Fatalf("expected spy reveal, got %#v", view["spy"])
	}
	if int(spy["id"].(float64)) != spyID {
		t.Fatalf("expected spy %d, got %v", spyID, spy["id"])
	}

	// Two correct voters earn a point each; the spy earns nothing.
	for _, player := range room.Players {
		want := 1
		if player.ID == spyID {
			want = 0
		}
		if player.Score != want {
			t.Fatalf("player %d: expected score %d, got %d", player.ID, want, player.Score)
		}
	}
}

func TestNextRoundResetsState(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	roomCode, hostID := createRoom(t, ts, "Ada")
	benID := joinPlayer(t, ts, roomCode, "Ben")

	startRound(t, ts, roomCode, hostID)
	submitHint(t, ts, roomCode, hostID, "🍜")
	submitHint(t, ts, roomCode, benID, "🍣")
	doRequest(t, ts, http.MethodPost, "/api/rooms/"+roomCode+"/lock", map[string]any{
		"player_id": hostID,
	})
	doRequest(t, ts, http.MethodPost, "/api/rooms/"+roomCode+"/close", map[string]any{
		"player_id": hostID,
	})

	resp := doRequest(t, ts, http.MethodPost, "/api/rooms/"+roomCode+"/next", map[string]any{
		"player_id": hostID,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("next: expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	view := fetchRoom(t, ts, roomCode, hostID)
	if view["phase"] != string(PhaseHint) {
		t.Fatalf("expected hint phase, got %v", view["phase"])
	}
	if view["round"] != float64(2) {
		t.Fatalf("expected round 2, got %v", view["round"])
	}
	hints, ok := view["hints"].([]any)
	if !ok {
		t.Fatalf("expected hints list, got %#v", view["hints"])
	}
	if len(hints) != 0 {
		t.Fatalf("expected fresh round without hints, got %d", len(hints))
	}
	if _, ok := view["my_hint"]; ok {
		t.Fatalf("expected no own hint in a fresh round")
	}
	if ms := view["vote_deadline_ms"].(float64); ms != 0 {
		t.Fatalf("expected the vote deadline to be cleared, got %v", ms)
	}
	if ms := view["hint_deadline_ms"].(float64); ms <= 0 {
		t.Fatalf("expected a fresh hint deadline, got %v", ms)
	}
}

func TestStartRequiresHost(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	roomCode, _ := createRoom(t, ts, "Ada")
	benID := joinPlayer(t, ts, roomCode, "Ben")

	resp := doRequest(t, ts, http.MethodPost, "/api/rooms/"+roomCode+"/start", map[string]any{
		"player_id": benID,
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, resp.StatusCode)
	}
}

func TestStartRequiresTwoPlayers(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	roomCode, hostID := createRoom(t, ts, "Ada")
	resp := doRequest(t, ts, http.MethodPost, "/api/rooms/"+roomCode+"/start", map[string]any{
		"player_id": hostID,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, resp.StatusCode)
	}
}

func TestJoinUnknownRoom(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	resp := doRequest(t, ts, http.MethodPost, "/api/rooms/ZZZZZZ/join", map[string]string{
		"name": "Ada",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestJoinDuplicateName(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	roomCode, _ := createRoom(t, ts, "Ada")
	resp := doRequest(t, ts, http.MethodPost, "/api/rooms/"+roomCode+"/join", map[string]string{
		"name": "Ada",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, resp.StatusCode)
	}
}

func TestJoinDuringRound(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	roomCode, hostID := createRoom(t, ts, "Ada")
	joinPlayer(t, ts, roomCode, "Ben")
	startRound(t, ts, roomCode, hostID)

	// Late joiners are allowed mid-round; they count toward the next quorum.
	carolID := joinPlayer(t, ts, roomCode, "Carol")
	view := fetchRoom(t, ts, roomCode, carolID)
	if view["my_topic"] == "" {
		t.Fatalf("expected a topic for the late joiner")
	}
}

func TestSubmitHintValidation(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	roomCode, hostID := createRoom(t, ts, "Ada")
	benID := joinPlayer(t, ts, roomCode, "Ben")
	startRound(t, ts, roomCode, hostID)

	resp := submitHint(t, ts, roomCode, hostID, "not emoji")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
	resp = submitHint(t, ts, roomCode, hostID, "🍜🍣🍕🌮")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d for too many emoji, got %d", http.StatusBadRequest, resp.StatusCode)
	}

	if resp := submitHint(t, ts, roomCode, hostID, "🍜"); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	// The same emoji set is rejected for a different player.
	resp = submitHint(t, ts, roomCode, benID, "🍜")
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected status %d for duplicate hint, got %d", http.StatusConflict, resp.StatusCode)
	}
	// Resubmission by the same player replaces the previous hint.
	if resp := submitHint(t, ts, roomCode, hostID, "🍣"); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d on resubmit, got %d", http.StatusOK, resp.StatusCode)
	}
	view := fetchRoom(t, ts, roomCode, hostID)
	if view["my_hint"] != "🍣" {
		t.Fatalf("expected resubmitted hint, got %v", view["my_hint"])
	}
	hints := view["hints"].([]any)
	if len(hints) != 1 {
		t.Fatalf("expected a single hint entry after resubmit, got %d", len(hints))
	}
}

func TestVoteRules(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	roomCode, hostID := createRoom(t, ts, "Ada")
	benID := joinPlayer(t, ts, roomCode, "Ben")
	startRound(t, ts, roomCode, hostID)

	resp := submitVote(t, ts, roomCode, hostID, benID)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected status %d during hint phase, got %d", http.StatusConflict, resp.StatusCode)
	}

	doRequest(t, ts, http.MethodPost, "/api/rooms/"+roomCode+"/lock", map[string]any{
		"player_id": hostID,
	})

	resp = submitVote(t, ts, roomCode, hostID, hostID)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected status %d for self-vote, got %d", http.StatusConflict, resp.StatusCode)
	}
	resp = doRequest(t, ts, http.MethodPost, "/api/rooms/"+roomCode+"/votes", map[string]any{
		"player_id": hostID,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d for missing target, got %d", http.StatusBadRequest, resp.StatusCode)
	}
	resp = submitVote(t, ts, roomCode, hostID, 9999)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d for unknown target, got %d", http.StatusNotFound, resp.StatusCode)
	}
	if resp := submitVote(t, ts, roomCode, hostID, benID); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	// Revoting replaces the earlier ballot rather than adding one.
	if resp := submitVote(t, ts, roomCode, hostID, benID); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d on revote, got %d", http.StatusOK, resp.StatusCode)
	}
	room, _ := srv.store.GetRoom(roomCode)
	if votes := latestRound(room).Votes; len(votes) != 1 {
		t.Fatalf("expected one stored vote, got %d", len(votes))
	}
}

func TestListRooms(t *testing.T) {
	srv := New(nil, config.Default())
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	createRoom(t, ts, "Ada")
	createRoom(t, ts, "Ben")

	resp := doRequest(t, ts, http.MethodGet, "/api/rooms", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	rooms, ok := body["rooms"].([]any)
	if !ok {
		t.Fatalf("expected rooms list, got %#v", body["rooms"])
	}
	if len(rooms) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(rooms))
	}
}
