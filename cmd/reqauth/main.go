// Command reqauth signs and verifies HMAC-authorized requests and manages the
// Postgres schema used by the key store and audit trail.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// Exit codes. verify reports its decision through the first three.
const (
	exitAccepted  = 0
	exitRejected  = 1
	exitMalformed = 2
	exitFailure   = 3
)

type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	code := c.run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func (c *cli) run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		c.usage()
		return exitFailure
	}

	switch args[0] {
	case "sign":
		return c.sign(args[1:])
	case "verify":
		return c.verify(ctx, args[1:])
	case "migrate":
		return c.migrate(args[1:])
	case "audit":
		return c.audit(ctx, args[1:])
	case "help", "-h", "--help":
		c.usage()
		return exitAccepted
	default:
		fmt.Fprintf(c.stderr, "unknown command %q\n", args[0])
		c.usage()
		return exitFailure
	}
}

func (c *cli) usage() {
	fmt.Fprint(c.stderr, `usage: reqauth <command> [flags]

commands:
  sign      sign a payload and print the request as JSON
  verify    authorize a JSON request (exit 0 accepted, 1 rejected, 2 malformed)
  migrate   apply the Postgres schema
  audit     print the audit history of a key
`)
}

func (c *cli) fail(format string, args ...any) int {
	fmt.Fprintf(c.stderr, "reqauth: "+format+"\n", args...)
	return exitFailure
}
