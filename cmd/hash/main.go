package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Prints a bcrypt hash, or with -email an INSERT seeding an admin account.
func main() {
	email := flag.String("email", "", "admin email; prints a seed statement instead of the bare hash")
	name := flag.String("name", "Admin", "admin display name")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("usage: go run ./cmd/hash [-email admin@bagasi.id] <password>")
		os.Exit(2)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(flag.Arg(0)), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *email == "" {
		fmt.Println(string(hash))
		return
	}
	fmt.Printf("INSERT INTO users (name, email, password_hash, role) VALUES ('%s', '%s', '%s', 'admin');\n",
		quote(*name), quote(strings.ToLower(*email)), hash)
}

func quote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
