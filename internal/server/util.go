package server

import "crypto/rand"

const roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const roomCodeLength = 6

// Bytes at or above this limit are discarded so every alphabet character
// is drawn with equal probability.
const roomCodeByteLimit = 256 - 256%len(roomCodeAlphabet)

func newRoomCode() string {
	code := make([]byte, 0, roomCodeLength)
	buf := make([]byte, 2*roomCodeLength)
	for len(code) < roomCodeLength {
		if _, err := rand.Read(buf); err != nil {
			return "AAAAAA"
		}
		code = appendCodeChars(code, buf)
	}
	return string(code)
}

func appendCodeChars(code []byte, raw []byte) []byte {
	for _, b := range raw {
		if len(code) == roomCodeLength {
			break
		}
		if int(b) >= roomCodeByteLimit {
			continue
		}
		code = append(code, roomCodeAlphabet[int(b)%len(roomCodeAlphabet)])
	}
	return code
}
