package core

import "regexp"

var roomCodeRe = regexp.MustCompile(`^[A-Za-z0-9_-]{6,40}$`)

// IsValidRoomCode reports whether code is a well-formed room code:
// 6 to 40 characters from [A-Za-z0-9_-]. Every entry point that accepts
// a room code from untrusted input checks this first.
func IsValidRoomCode(code string) bool {
	return roomCodeRe.MatchString(code)
}
