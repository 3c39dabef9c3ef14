package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
)

// Generates a random secret suitable for PLAYBACK_SIGNING_KEY or
// SESSION_JWT_SECRET. Usage: go run scripts/gen-signing-key.go
func main() {
	key := make([]byte, 48)
	if _, err := rand.Read(key); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(base64.RawURLEncoding.EncodeToString(key))
}
