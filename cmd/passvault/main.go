package main

import (
	"bufio"
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"

	"github.com/atotto/clipboard"
	"golang.org/x/term"

	"github.com/dmarkov/passvault/internal/store"
	"github.com/dmarkov/passvault/internal/vault"
)

const cliVersion = "0.1.0"

const defaultDBPath = "vault/passvault.db"

type userError struct {
	msg string
}

func (e userError) Error() string { return e.msg }

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "version":
		fmt.Println(cliVersion)
	case "register":
		if err := runRegister(os.Args[2:]); err != nil {
			handleError(err)
		}
	case "session":
		if err := runSession(os.Args[2:]); err != nil {
			handleError(err)
		}
	default:
		printUsage()
		os.Exit(1)
	}
}

func handleError(err error) {
	if err == nil {
		return
	}

	var uerr userError
	if errors.As(err, &uerr) {
		fmt.Fprintln(os.Stderr, uerr.Error())
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "unexpected error: %v\n", err)
	os.Exit(2)
}

func newEngine(dbPath string) (*vault.Engine, *store.DB, error) {
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open vault database: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return vault.New(db, logger), db, nil
}

func runRegister(args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var dbPath string
	var user string
	fs.StringVar(&dbPath, "db", defaultDBPath, "vault database path")
	fs.StringVar(&user, "user", "", "username")

	if err := fs.Parse(args); err != nil {
		return userError{msg: "invalid arguments"}
	}
	if user == "" {
		return userError{msg: "missing required flag: --user"}
	}
	if fs.NArg() != 0 {
		return userError{msg: "unexpected positional arguments"}
	}

	pw, err := promptPassword("Master password: ")
	if err != nil {
		return fmt.Errorf("read master password: %w", err)
	}
	defer zeroBytes(pw)

	confirm, err := promptPassword("Confirm master password: ")
	if err != nil {
		return fmt.Errorf("read confirmation password: %w", err)
	}
	defer zeroBytes(confirm)

	if !bytes.Equal(pw, confirm) {
		return userError{msg: "passwords do not match"}
	}

	engine, db, err := newEngine(dbPath)
	if err != nil {
		return err
	}
	defer store.Close(db)

	id, err := engine.Register(user, string(pw))
	if err != nil {
		if errors.Is(err, vault.ErrDuplicateUsername) {
			return userError{msg: "username already exists"}
		}
		return fmt.Errorf("register: %w", err)
	}

	fmt.Printf("registered user %s (id=%d)\n", user, id)
	return nil
}

func runSession(args []string) error {
	fs := flag.NewFlagSet("session", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var dbPath string
	var user string
	fs.StringVar(&dbPath, "db", defaultDBPath, "vault database path")
	fs.StringVar(&user, "user", "", "username")

	if err := fs.Parse(args); err != nil {
		return userError{msg: "invalid arguments"}
	}
	if user == "" {
		return userError{msg: "missing required flag: --user"}
	}
	if fs.NArg() != 0 {
		return userError{msg: "unexpected positional arguments"}
	}

	pw, err := promptPassword("Master password: ")
	if err != nil {
		return fmt.Errorf("read master password: %w", err)
	}
	defer zeroBytes(pw)

	engine, db, err := newEngine(dbPath)
	if err != nil {
		return err
	}
	defer store.Close(db)

	session, err := engine.Login(user, string(pw))
	if err != nil {
		if errors.Is(err, vault.ErrInvalidCredentials) {
			return userError{msg: "invalid username or master password"}
		}
		return fmt.Errorf("login: %w", err)
	}
	defer engine.Logout(session)

	fmt.Printf("unlocked vault for %s; type 'help' for commands\n", user)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("passvault> ")
		if !scanner.Scan() {
			break
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "help":
			printSessionHelp()
		case "add":
			handleSessionError(sessionAdd(engine, session, fields[1:]))
		case "get":
			handleSessionError(sessionGet(engine, session, fields[1:], os.Stdout))
		case "copy":
			handleSessionError(sessionCopy(engine, session, fields[1:]))
		case "list":
			handleSessionError(sessionList(engine, session, os.Stdout))
		case "exit", "quit":
			return nil
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q; type 'help'\n", fields[0])
		}
	}

	return scanner.Err()
}

func sessionAdd(engine *vault.Engine, s *vault.Session, args []string) error {
	if len(args) != 1 {
		return userError{msg: "usage: add <service>"}
	}

	secret, err := promptPassword("Secret: ")
	if err != nil {
		return fmt.Errorf("read secret: %w", err)
	}
	defer zeroBytes(secret)

	id, err := engine.PutSecret(s, args[0], string(secret))
	if err != nil {
		return fmt.Errorf("store secret: %w", err)
	}

	fmt.Printf("stored secret for %s (id=%d)\n", args[0], id)
	return nil
}

func sessionGet(engine *vault.Engine, s *vault.Session, args []string, out io.Writer) error {
	if len(args) != 1 {
		return userError{msg: "usage: get <service>"}
	}

	secret, err := engine.GetSecret(s, args[0])
	if err != nil {
		return sessionFetchError(args[0], err)
	}

	fmt.Fprintf(out, "%s: %s\n", args[0], secret)
	return nil
}

func sessionCopy(engine *vault.Engine, s *vault.Session, args []string) error {
	if len(args) != 1 {
		return userError{msg: "usage: copy <service>"}
	}

	secret, err := engine.GetSecret(s, args[0])
	if err != nil {
		return sessionFetchError(args[0], err)
	}

	if err := clipboard.WriteAll(secret); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}

	fmt.Printf("copied secret for %s to clipboard\n", args[0])
	return nil
}

func sessionList(engine *vault.Engine, s *vault.Session, out io.Writer) error {
	services, err := engine.ListServices(s)
	if err != nil {
		return fmt.Errorf("list services: %w", err)
	}
	if len(services) == 0 {
		fmt.Fprintln(out, "no secrets stored")
		return nil
	}
	for _, name := range services {
		fmt.Fprintln(out, name)
	}
	return nil
}

func sessionFetchError(service string, err error) error {
	switch {
	case errors.Is(err, vault.ErrSecretNotFound):
		return userError{msg: fmt.Sprintf("no secret found for %s", service)}
	case errors.Is(err, vault.ErrDecryptionFailed):
		return userError{msg: fmt.Sprintf("could not decrypt secret for %s", service)}
	default:
		return fmt.Errorf("fetch secret: %w", err)
	}
}

func handleSessionError(err error) {
	if err == nil {
		return
	}

	var uerr userError
	if errors.As(err, &uerr) {
		fmt.Fprintln(os.Stderr, uerr.Error())
		return
	}

	fmt.Fprintf(os.Stderr, "error: %v\n", err)
}

func promptPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: passvault <command>")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  version")
	fmt.Fprintln(os.Stderr, "  register --user <username> [--db <path>]")
	fmt.Fprintln(os.Stderr, "  session --user <username> [--db <path>]")
}

func printSessionHelp() {
	fmt.Println("Commands:")
	fmt.Println("  add <service>   store a secret for a service")
	fmt.Println("  get <service>   print a stored secret")
	fmt.Println("  copy <service>  copy a stored secret to the clipboard")
	fmt.Println("  list            list stored service names")
	fmt.Println("  exit | quit")
}
