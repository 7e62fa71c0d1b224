// hashpw generates an argon2id hash for the credential file, which stores
// hashes only.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"remarks/auth"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [password]\nReads the password from stdin when no argument is given.\n", os.Args[0])
	}
	flag.Parse()

	password := flag.Arg(0)
	if password == "" {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			log.Fatal("Reading password: ", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatal("Hashing failed: ", err)
	}
	fmt.Println(hash)
}
