package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mendtool/mend/internal/ticket"
)

func confirmWith(t *testing.T, input string) (bool, string) {
	t.Helper()
	var out bytes.Buffer
	c := newTerminalConfirmer(strings.NewReader(input), &out)

	ok, err := c.Confirm(context.Background(), &ticket.Ticket{ID: "BE-001", Title: "Endpoint"})
	require.NoError(t, err)
	return ok, out.String()
}

func TestTerminalConfirmerAccepts(t *testing.T) {
	for _, input := range []string{"y\n", "Y\n", "yes\n", " yes \n"} {
		ok, prompt := confirmWith(t, input)
		assert.True(t, ok, "input %q", input)
		assert.Contains(t, prompt, "BE-001")
	}
}

func TestTerminalConfirmerDeclines(t *testing.T) {
	for _, input := range []string{"n\n", "no\n", "\n", "anything\n"} {
		ok, _ := confirmWith(t, input)
		assert.False(t, ok, "input %q", input)
	}
}

func TestTerminalConfirmerDeclinesOnEOF(t *testing.T) {
	c := newTerminalConfirmer(strings.NewReader(""), &bytes.Buffer{})
	ok, err := c.Confirm(context.Background(), &ticket.Ticket{ID: "BE-001"})
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestTerminalConfirmerKeepsTypeAheadAcrossPrompts(t *testing.T) {
	// Both answers arrive before the first prompt; the second must not be
	// swallowed by the first read's buffering.
	c := newTerminalConfirmer(strings.NewReader("y\nn\n"), &bytes.Buffer{})

	first, err := c.Confirm(context.Background(), &ticket.Ticket{ID: "BE-001"})
	require.NoError(t, err)
	assert.True(t, first)

	second, err := c.Confirm(context.Background(), &ticket.Ticket{ID: "BE-002"})
	require.NoError(t, err)
	assert.False(t, second)
}

func TestTerminalConfirmerUnblocksOnCancel(t *testing.T) {
	// A reader that never delivers input, like an idle terminal.
	in, _ := io.Pipe()
	c := newTerminalConfirmer(in, &bytes.Buffer{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Confirm(ctx, &ticket.Ticket{ID: "BE-001"})
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Confirm() did not unblock on context cancellation")
	}
}
