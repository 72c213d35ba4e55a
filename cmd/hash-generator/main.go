// Command hash-generator produces the bcrypt hash of an operator access key
// for the TALOS_AUTH_ACCESS_KEY_HASH setting.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost factor")
	flag.Parse()

	key := strings.TrimSpace(flag.Arg(0))
	if key == "" {
		fmt.Fprint(os.Stderr, "access key: ")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read access key: %v\n", err)
			os.Exit(1)
		}
		key = strings.TrimSpace(line)
	}

	if key == "" {
		fmt.Fprintln(os.Stderr, "usage: hash-generator [-cost N] <access-key>")
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(key), *cost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate hash: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(string(hash))
}
