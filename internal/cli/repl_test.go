package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	failOn   string

	calls []string
}

func (f *fakeExec) record(call string) error {
	f.calls = append(f.calls, call)
	if call == f.failOn {
		return errors.New("boom")
	}
	return nil
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Login(ctx context.Context) error {
	f.loggedIn = true
	return f.record("login")
}
func (f *fakeExec) Setup(ctx context.Context) error  { return f.record("setup") }
func (f *fakeExec) Status(ctx context.Context) error { return f.record("status") }
func (f *fakeExec) Logout(ctx context.Context) error {
	f.loggedIn = false
	return f.record("logout")
}
func (f *fakeExec) List(ctx context.Context, what string) error { return f.record("list " + what) }
func (f *fakeExec) Add(ctx context.Context, what string) error  { return f.record("add " + what) }
func (f *fakeExec) EditEmployee(ctx context.Context, id string) error {
	return f.record("edit " + id)
}
func (f *fakeExec) Delete(ctx context.Context, what, id string) error {
	return f.record("delete " + what + " " + id)
}
func (f *fakeExec) Lookup(ctx context.Context, aadhar string) error {
	return f.record("lookup " + aadhar)
}
func (f *fakeExec) Stats(ctx context.Context, orgID string) error { return f.record("stats " + orgID) }
func (f *fakeExec) Export(ctx context.Context, args []string) error {
	return f.record("export " + strings.Join(args, ","))
}
func (f *fakeExec) Sync(ctx context.Context) error { return f.record("sync") }
func (f *fakeExec) SetOffline(ctx context.Context, offline bool) error {
	if offline {
		return f.record("offline")
	}
	return f.record("online")
}
func (f *fakeExec) Wipe(ctx context.Context) error { return f.record("wipe") }

func TestRunREPL_LoginFlowAndCommands(t *testing.T) {
	input := strings.Join([]string{
		"help",
		"list orgs",
		"login",
		"help",
		"",
		"list orgs",
		"add visitor",
		"edit e1",
		"delete employee e1",
		"lookup 1234",
		"stats",
		"stats o1",
		"export org=o1 upload",
		"sync",
		"offline",
		"online",
		"wipe",
		"status",
		"logout",
		"exit",
		"sync",
	}, "\n")

	exec := &fakeExec{}
	var out bytes.Buffer
	runREPL(context.Background(), exec, func() string { return "(s)" }, rdr(input), &out)

	want := []string{
		"login", "list orgs", "add visitor", "edit e1", "delete employee e1",
		"lookup 1234", "stats ", "stats o1", "export org=o1,upload", "sync",
		"offline", "online", "wipe", "status", "logout",
	}
	assert.Equal(t, want, exec.calls)
	assert.Contains(t, out.String(), "Please login first")
	assert.Contains(t, out.String(), "Available commands: login")
	assert.Contains(t, out.String(), "Available commands: list")
	assert.Contains(t, out.String(), "gatepass (s)> ")
	assert.Contains(t, out.String(), "Bye!")
}

func TestRunREPL_UsageAndUnknown(t *testing.T) {
	input := "list\nadd\nedit\ndelete org\nlookup\nfoobar\nquit\n"
	exec := &fakeExec{loggedIn: true}
	var out bytes.Buffer

	runREPL(context.Background(), exec, func() string { return "" }, rdr(input), &out)

	assert.Empty(t, exec.calls)
	for _, s := range []string{"Usage: list", "Usage: add", "Usage: edit", "Usage: delete", "Usage: lookup", "Unknown command: foobar"} {
		assert.Contains(t, out.String(), s)
	}
}

func TestRunREPL_ErrorsDoNotStopLoop(t *testing.T) {
	exec := &fakeExec{loggedIn: true, failOn: "sync"}
	var out bytes.Buffer

	runREPL(context.Background(), exec, func() string { return "" }, rdr("sync\nstatus"), &out)

	assert.Equal(t, []string{"sync", "status"}, exec.calls)
	assert.Contains(t, out.String(), "Error: boom")
}

func TestRunREPL_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exec := &fakeExec{loggedIn: true}
	var out bytes.Buffer

	runREPL(ctx, exec, func() string { return "" }, rdr("sync\n"), &out)

	assert.Empty(t, exec.calls)
}
