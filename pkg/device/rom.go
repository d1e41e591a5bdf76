package device

import (
	"os"

	"github.com/m-mizutani/goerr"
)

// DefaultRomPath is where a Rom looks when no explicit path is given.
const DefaultRomPath = "rom.crm"

// Rom is a read-only view of a file image, at most 64 KiB. Reads behave like
// Memory reads; reads past the end of the image yield zero bytes. Writes are
// faults.
type Rom struct {
	data []byte
	ptr  uint16
}

// NewRom loads the image at path. Content beyond 64 KiB is ignored.
func NewRom(path string) (*Rom, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "rom open").With("path", path)
	}
	if len(data) > MemorySize {
		data = data[:MemorySize]
	}
	return &Rom{data: data}, nil
}

func (r *Rom) Write(p []byte) error {
	return goerr.New("rom is read-only").With("len", len(p))
}

func (r *Rom) Read(n int) ([]byte, error) {
	out := make([]byte, n)
	for i := range out {
		if int(r.ptr) < len(r.data) {
			out[i] = r.data[r.ptr]
		}
		r.ptr++
	}
	return out, nil
}

func (r *Rom) SetPointer(v uint16) {
	r.ptr = v
}

func (r *Rom) Pointer() uint16 {
	return r.ptr
}
