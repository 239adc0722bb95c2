package serialsensor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeamusWaldron/mindcuber"
)

// board answers queued replies in order and records the commands sent.
type board struct {
	sent    bytes.Buffer
	replies *strings.Reader
	closed  bool
}

func newBoard(replies ...string) *board {
	return &board{replies: strings.NewReader(strings.Join(replies, ""))}
}

func (b *board) Read(p []byte) (int, error)  { return b.replies.Read(p) }
func (b *board) Write(p []byte) (int, error) { return b.sent.Write(p) }
func (b *board) Close() error {
	b.closed = true
	return nil
}

var _ io.ReadWriteCloser = (*board)(nil)

func TestReadColor(t *testing.T) {
	b := newBoard("120 45 33\r\n", "7 8 9\n")
	s := New(b, zerolog.Nop())
	ctx := context.Background()

	c, err := s.ReadColor(ctx)
	require.NoError(t, err)
	assert.Equal(t, mindcuber.RGB{R: 120, G: 45, B: 33}, c)

	c, err = s.ReadColor(ctx)
	require.NoError(t, err)
	assert.Equal(t, mindcuber.RGB{R: 7, G: 8, B: 9}, c)

	assert.Equal(t, "C\nC\n", b.sent.String())
}

func TestReadProximity(t *testing.T) {
	b := newBoard("42\n", "100")
	s := New(b, zerolog.Nop())
	ctx := context.Background()

	d, err := s.ReadProximity(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, d)

	// Last reply without a newline still parses.
	d, err = s.ReadProximity(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100, d)
	assert.Equal(t, "P\nP\n", b.sent.String())
}

func TestBadReplies(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		color bool
	}{
		{"short color", "1 2\n", true},
		{"text color", "red green blue\n", true},
		{"extra proximity", "1 2\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(newBoard(tt.reply), zerolog.Nop())
			var err error
			if tt.color {
				_, err = s.ReadColor(context.Background())
			} else {
				_, err = s.ReadProximity(context.Background())
			}
			assert.ErrorIs(t, err, ErrBadReply)
		})
	}
}

func TestNoReply(t *testing.T) {
	s := New(newBoard(), zerolog.Nop())
	_, err := s.ReadColor(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestCancelledContext(t *testing.T) {
	b := newBoard("1 2 3\n")
	s := New(b, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.ReadColor(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, b.sent.String())

	require.NoError(t, s.Close())
	assert.True(t, b.closed)
}

var errTimeout = errors.New("read timeout")

// slowBoard queues one reply per command into its input buffer. The first
// stalls reads time out with the reply still pending, as a board that
// answers late would.
type slowBoard struct {
	input   bytes.Buffer
	replies []string
	stalls  int
	resets  int
}

func (b *slowBoard) Write(p []byte) (int, error) {
	if len(b.replies) > 0 {
		b.input.WriteString(b.replies[0])
		b.replies = b.replies[1:]
	}
	return len(p), nil
}

func (b *slowBoard) Read(p []byte) (int, error) {
	if b.stalls > 0 {
		b.stalls--
		return 0, errTimeout
	}
	if b.input.Len() == 0 {
		return 0, io.EOF
	}
	return b.input.Read(p)
}

func (b *slowBoard) ResetInputBuffer() error {
	b.input.Reset()
	b.resets++
	return nil
}

func (b *slowBoard) Close() error { return nil }

func TestLateReplyIsDiscarded(t *testing.T) {
	b := &slowBoard{replies: []string{"10 20 30\n", "40 50 60\n"}, stalls: 1}
	s := New(b, zerolog.Nop())
	ctx := context.Background()

	_, err := s.ReadColor(ctx)
	require.ErrorIs(t, err, errTimeout)
	assert.Equal(t, 1, b.resets)

	c, err := s.ReadColor(ctx)
	require.NoError(t, err)
	assert.Equal(t, mindcuber.RGB{R: 40, G: 50, B: 60}, c)
}

func TestBadReplyDiscardsBufferedInput(t *testing.T) {
	b := &slowBoard{replies: []string{"1 2\n9 9 9\n", "4 5 6\n"}}
	s := New(b, zerolog.Nop())
	ctx := context.Background()

	_, err := s.ReadColor(ctx)
	require.ErrorIs(t, err, ErrBadReply)

	c, err := s.ReadColor(ctx)
	require.NoError(t, err)
	assert.Equal(t, mindcuber.RGB{R: 4, G: 5, B: 6}, c)
}
