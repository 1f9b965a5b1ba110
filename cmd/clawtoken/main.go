// Command clawtoken mints a credential for the external decision endpoint.
// It prints the plaintext token (hand this to the OpenClaw controller) and
// the hash to place in the claw.token_hash config field.
package main

import (
	"fmt"
	"os"

	"github.com/clawlabs/arenabot/internal/crypto"
)

func main() {
	token, err := crypto.NewToken()
	if err != nil {
		fmt.Fprintf(os.Stderr, "clawtoken: %v\n", err)
		os.Exit(1)
	}
	hash, err := crypto.HashToken(token)
	if err != nil {
		fmt.Fprintf(os.Stderr, "clawtoken: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("token:      %s\n", token)
	fmt.Printf("token_hash: %s\n", hash)
}
