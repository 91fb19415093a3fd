package main

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

var rng *rand.Rand

func init() {
	rng = rand.New(rand.NewSource(time.Now().UnixNano()))
}

// GenerateRoomCode creates a 6-digit numeric room code. The code is not
// checked for collisions anywhere; it only needs to be hard enough to
// guess for an out-of-band handoff.
func GenerateRoomCode() string {
	return fmt.Sprintf("%06d", 100000+rng.Intn(900000))
}

// NormalizeRoomCode ensures consistent formatting (trimmed)
func NormalizeRoomCode(code string) string {
	return strings.TrimSpace(code)
}

// ValidateRoomCode checks that a code is exactly 6 decimal digits
func ValidateRoomCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
