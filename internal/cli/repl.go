package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL drives. App satisfies it; tests
// use a stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Setup(ctx context.Context) error
	Logout(ctx context.Context) error
	Status(ctx context.Context) error
	List(ctx context.Context, what string) error
	Add(ctx context.Context, what string) error
	EditEmployee(ctx context.Context, id string) error
	Delete(ctx context.Context, what, id string) error
	Lookup(ctx context.Context, aadhar string) error
	Stats(ctx context.Context, orgID string) error
	Export(ctx context.Context, args []string) error
	Sync(ctx context.Context) error
	SetOffline(ctx context.Context, offline bool) error
	Wipe(ctx context.Context) error
}

// runREPL reads commands from reader until EOF, "exit" or "quit". Command
// errors are printed and the loop goes on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprintf(w, "gatepass %s> ", statusFn())
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			fmt.Fprintln(w)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if cmd == "exit" || cmd == "quit" {
			fmt.Fprintln(w, "Bye!")
			return
		}
		if err := dispatch(ctx, a, cmd, args, w); err != nil {
			fmt.Fprintln(w, "Error:", err)
		}
	}
}

func dispatch(ctx context.Context, a execIface, cmd string, args []string, w io.Writer) error {
	switch cmd {
	case "help":
		if a.isLoggedIn() {
			fmt.Fprintln(w, "Available commands: list, add, edit, delete, lookup, stats, export, sync, offline, online, wipe, status, logout, exit")
		} else {
			fmt.Fprintln(w, "Available commands: login, setup, status, exit")
		}
		return nil
	case "login":
		return a.Login(ctx)
	case "setup":
		return a.Setup(ctx)
	case "status":
		return a.Status(ctx)
	}

	if !a.isLoggedIn() {
		fmt.Fprintln(w, "Please login first")
		return nil
	}

	switch cmd {
	case "list", "l":
		if len(args) != 1 {
			fmt.Fprintln(w, "Usage: list <orgs|employees|visitors|admins>")
			return nil
		}
		return a.List(ctx, args[0])
	case "add":
		if len(args) != 1 {
			fmt.Fprintln(w, "Usage: add <org|employee|visitor|admin>")
			return nil
		}
		return a.Add(ctx, args[0])
	case "edit":
		if len(args) != 1 {
			fmt.Fprintln(w, "Usage: edit <employee-id>")
			return nil
		}
		return a.EditEmployee(ctx, args[0])
	case "delete":
		if len(args) != 2 {
			fmt.Fprintln(w, "Usage: delete <kind> <id>")
			return nil
		}
		return a.Delete(ctx, args[0], args[1])
	case "lookup":
		if len(args) != 1 {
			fmt.Fprintln(w, "Usage: lookup <aadhar>")
			return nil
		}
		return a.Lookup(ctx, args[0])
	case "stats":
		org := ""
		if len(args) > 0 {
			org = args[0]
		}
		return a.Stats(ctx, org)
	case "export":
		return a.Export(ctx, args)
	case "sync":
		return a.Sync(ctx)
	case "offline":
		return a.SetOffline(ctx, true)
	case "online":
		return a.SetOffline(ctx, false)
	case "wipe":
		return a.Wipe(ctx)
	case "logout":
		return a.Logout(ctx)
	}

	fmt.Fprintln(w, "Unknown command:", cmd)
	return nil
}
