package device

import (
	"bufio"
	"encoding/hex"
	"io"
	"math/big"

	"github.com/m-mizutani/goerr"
)

// Console formats between raw machine bytes and line-oriented text streams.
// Its pointer is a format code: 0 renders decimal, 1 renders hexadecimal.
type Console struct {
	in     *bufio.Reader
	out    io.Writer
	format uint16
}

// NewConsole builds a console over the given streams. The default slot-0
// console uses os.Stdin/os.Stdout; tests inject buffers.
func NewConsole(r io.Reader, w io.Writer) *Console {
	return &Console{in: bufio.NewReader(r), out: w}
}

// Write renders the payload big-endian in the current format, with no
// separator between calls. An empty payload renders nothing.
func (c *Console) Write(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	var text string
	if c.format == 0 {
		text = new(big.Int).SetBytes(p).String()
	} else {
		text = hex.EncodeToString(p)
	}
	if _, err := io.WriteString(c.out, text); err != nil {
		return goerr.Wrap(err, "console write")
	}
	return nil
}

// Read scans one whitespace-delimited token, parses it in the current
// format, and returns exactly n bytes big-endian: high bytes are truncated
// away, short values are zero-extended.
func (c *Console) Read(n int) ([]byte, error) {
	tok, err := c.readToken()
	if err != nil {
		return nil, goerr.Wrap(err, "console read")
	}
	base := 10
	if c.format == 1 {
		base = 16
	}
	v, ok := new(big.Int).SetString(tok, base)
	if !ok || v.Sign() < 0 {
		return nil, goerr.New("console read: bad token").With("token", tok).With("format", c.format)
	}
	return fitBytes(v.Bytes(), n), nil
}

// SetPointer sets the format code; only the low bit is significant.
func (c *Console) SetPointer(v uint16) {
	c.format = v & 1
}

func (c *Console) Pointer() uint16 {
	return c.format
}

func (c *Console) readToken() (string, error) {
	var tok []byte
	for {
		b, err := c.in.ReadByte()
		if err != nil {
			if err == io.EOF && len(tok) > 0 {
				return string(tok), nil
			}
			return "", err
		}
		if b == ' ' || b == '\t' || b == '\n' || b == '\r' {
			if len(tok) > 0 {
				return string(tok), nil
			}
			continue
		}
		tok = append(tok, b)
	}
}
