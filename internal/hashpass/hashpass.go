// Package hashpass implements the hashpass operator tool: it reads a
// password from the terminal and prints its bcrypt hash, or prints a fresh
// random signing key.
package hashpass

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/financa/internal/secrets"
	"github.com/dmitrijs2005/financa/internal/server/config"
	"github.com/dmitrijs2005/financa/internal/server/credentials"
	"golang.org/x/term"
)

// keyBytes is the size of a generated signing key before hex encoding.
const keyBytes = 32

var ErrEmptyPassword = errors.New("empty password")

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

type options struct {
	cost   int
	genKey bool
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("hashpass", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.IntVar(&opts.cost, "k", config.DefaultPasswordCost, "bcrypt cost factor")
	fs.BoolVar(&opts.genKey, "genkey", false, "print a random token signing key and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

// Run executes the tool with args (without the program name). Prompts go
// to stderr so that stdout carries only the result.
func Run(args []string, stdout, stderr io.Writer) error {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}

	if opts.genKey {
		key, err := secrets.RandomHex(keyBytes)
		if err != nil {
			return fmt.Errorf("generate key: %w", err)
		}
		_, err = fmt.Fprintln(stdout, key)
		return err
	}

	m, err := credentials.NewManager(opts.cost)
	if err != nil {
		return err
	}

	fmt.Fprint(stderr, "Enter password: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(stderr)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	defer secrets.Wipe(pw)

	if len(pw) == 0 {
		return ErrEmptyPassword
	}

	hash, err := m.Hash(string(pw))
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(stdout, hash)
	return err
}
