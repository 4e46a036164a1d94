// Command hash-password prints bcrypt hashes for passwords read from stdin,
// one per line, for seeding or resetting users.hashed_password directly.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/phrazzld/vocab-api/internal/service/auth"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	flag.Parse()

	if err := hashLines(os.Stdin, os.Stdout, auth.NewBcryptHasher(*cost)); err != nil {
		log.Fatalf("hash-password: %v", err)
	}
}

// hashLines writes one hash per non-empty input line.
func hashLines(in io.Reader, out io.Writer, hasher auth.PasswordHasher) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		password := scanner.Text()
		if password == "" {
			continue
		}
		hash, err := hasher.Hash(password)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(out, hash); err != nil {
			return err
		}
	}
	return scanner.Err()
}
