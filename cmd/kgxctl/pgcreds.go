package main

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/biomedkg/kgxchange/internal/secrets"
	"golang.org/x/term"
)

// propertyGraphCredentials resolves the property-graph DB password
// from config, falling back to the OS keychain, and finally an
// interactive masked prompt — only when format actually needs a
// password (pgdb) and neither source supplied one.
func propertyGraphCredentials(format string) (uri, username, password, database string) {
	uri, username, database = cfg.PropertyGraph.URI, cfg.PropertyGraph.Username, cfg.PropertyGraph.Database
	password = cfg.PropertyGraph.Password
	if format != string(pgdbFormat) {
		return
	}
	if password != "" {
		return
	}
	store := secrets.New(nil)
	if secret, err := store.Get(secrets.ItemNeo4jPassword); err == nil && secret != "" {
		password = secret
		return
	}
	password = promptPassword("property graph password: ")
	return
}

const pgdbFormat = "pgdb"

func promptPassword(prompt string) string {
	fmt.Fprint(os.Stderr, prompt)
	if term.IsTerminal(int(syscall.Stdin)) {
		b, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(b))
	}
	var line string
	fmt.Fscanln(os.Stdin, &line)
	return strings.TrimSpace(line)
}
