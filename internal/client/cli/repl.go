package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Verify(ctx context.Context, link string) error
	Login(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL reads commands from reader until EOF, "exit" or "quit", or ctx
// cancellation.
//
//	Not logged in: help, register, verify [link], login, exit
//	Logged in:     help, whoami, logout, exit
//
// Command errors are reported by the handlers themselves.
//
// Commands prompt for their input on the same reader.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("sk> %s > ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: whoami, logout, exit")
			} else {
				printlnFn("Available commands: register, verify [link], login, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "verify":
			link := ""
			if len(parts) > 1 {
				link = parts[1]
			}
			_ = a.Verify(ctx, link)

		case "login":
			if a.isLoggedIn() {
				printlnFn("Already logged in, logout first")
				continue
			}
			_ = a.Login(ctx)

		case "whoami", "me":
			_ = a.WhoAmI(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
