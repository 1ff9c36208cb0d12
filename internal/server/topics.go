package server

import "math/rand/v2"

// topicPairs holds semantically close concept pairs. One member becomes the
// majority topic, the other goes to the spy; which is which is decided by a
// coin flip per round.
var topicPairs = [][2]string{
	{"ramen", "tsukemen"},
	{"sushi", "sashimi"},
	{"curry", "beef stew"},
	{"pizza", "calzone"},
	{"hamburger", "hot dog"},
	{"yakiniku", "yakitori"},
	{"tempura", "fried chicken"},
	{"takoyaki", "okonomiyaki"},
	{"udon", "soba"},
	{"coffee", "black tea"},
	{"bread", "rice"},
	{"milk", "soy milk"},
	{"apple", "pear"},
	{"strawberry", "cherry"},
	{"cat", "tiger"},
	{"dog", "wolf"},
	{"penguin", "seal"},
	{"elephant", "rhino"},
	{"giraffe", "zebra"},
	{"lion", "cheetah"},
	{"sea", "lake"},
	{"mountain", "hill"},
	{"desert", "savanna"},
	{"river", "waterfall"},
	{"thunder", "fireworks"},
	{"rainbow", "aurora"},
	{"snowman", "snowball"},
	{"bullet train", "express train"},
	{"airplane", "helicopter"},
	{"bicycle", "motorcycle"},
	{"rocket", "satellite"},
	{"ship", "yacht"},
	{"taxi", "bus"},
	{"soccer", "futsal"},
	{"baseball", "softball"},
	{"basketball", "3x3"},
	{"tennis", "badminton"},
	{"skiing", "snowboarding"},
	{"shogi", "chess"},
	{"bookstore", "library"},
}

// newRoundState assigns topics and designates the spy: one player picked
// uniformly at random, one pair picked uniformly, 50% chance the pair is
// swapped. Exactly one spy per round.
// TODO: multi-spy variant would pick k spies here and store a spy set.
func newRoundState(room *Room) RoundState {
	spy := room.Players[rand.IntN(len(room.Players))]
	pair := topicPairs[rand.IntN(len(topicPairs))]
	majority, minority := pair[0], pair[1]
	if rand.IntN(2) == 0 {
		majority, minority = minority, majority
	}
	return RoundState{
		Number:   len(room.Rounds) + 1,
		Topic:    majority,
		SpyTopic: minority,
		SpyID:    spy.ID,
	}
}

// topicForPlayer returns the topic the given player should see.
func topicForPlayer(round *RoundState, playerID int) string {
	if round == nil {
		return ""
	}
	if round.SpyID == playerID {
		return round.SpyTopic
	}
	return round.Topic
}
