package terminal

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
)

// Console reads player input lines from a terminal.
type Console struct {
	reader *bufio.Reader
}

// NewConsole wraps r for line-based reading.
//
// Precondition: r must be non-nil.
func NewConsole(r io.Reader) *Console {
	return &Console{reader: bufio.NewReaderSize(r, 4096)}
}

// ReadLine reads a single line of input without its line terminator. Both \n and \r\n end a
// line; other control characters except tab are dropped.
//
// Postcondition: Returns the next line, or an error (including io.EOF). A final line without
// a terminator is returned together with io.EOF.
func (c *Console) ReadLine() (string, error) {
	var line bytes.Buffer
	for {
		b, err := c.reader.ReadByte()
		if err != nil {
			return line.String(), err
		}
		if b == '\n' {
			break
		}
		if b == '\r' {
			next, err := c.reader.Peek(1)
			if err == nil && len(next) > 0 && next[0] == '\n' {
				_, _ = c.reader.ReadByte()
			}
			break
		}
		if b < 32 && b != '\t' {
			continue
		}
		line.WriteByte(b)
	}
	return line.String(), nil
}

// Run hands every line to handle until input ends or ctx is done. ctx is checked between
// lines; a read already blocked on the terminal is not interrupted.
//
// Postcondition: Returns nil at end of input, ctx.Err() on cancellation, or the read error.
func (c *Console) Run(ctx context.Context, handle func(string)) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := c.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if line != "" {
					handle(line)
				}
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		handle(line)
	}
}
