package soft

import (
	"fmt"
	"sync"

	"github.com/gogpu/graphics/gpucore"
)

// staging is a CPU readable copy destination with a padded row pitch.
type staging struct {
	mu       sync.Mutex
	width    uint32
	height   uint32
	format   gpucore.ColorFormat
	rowPitch uint32
	buf      []byte
	mapped   bool
}

func (s *staging) RowPitch() uint32 { return s.rowPitch }

func (s *staging) Map() ([]byte, uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buf == nil {
		return nil, 0, fmt.Errorf("soft: staging surface destroyed")
	}
	s.mapped = true
	return s.buf, s.rowPitch, nil
}

func (s *staging) Unmap() {
	s.mu.Lock()
	s.mapped = false
	s.mu.Unlock()
}

func (s *staging) Destroy() {
	s.mu.Lock()
	s.buf = nil
	s.mu.Unlock()
}

// copyFrom spreads the tight rows of one texture level across the padded
// staging rows.
func (s *staging) copyFrom(t *Texture, level uint32) error {
	src := t.LevelBytes(0, level)
	if src == nil {
		return fmt.Errorf("soft: copy source level %d missing", level)
	}
	w, h := gpucore.LevelDims(t.desc.Width, t.desc.Height, level)
	tight := gpucore.TightRowPitch(t.desc.Format, w)
	rows := gpucore.TightRowCount(t.desc.Format, h)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buf == nil {
		return fmt.Errorf("soft: staging surface destroyed")
	}
	if tight > s.rowPitch || rows*s.rowPitch > uint32(len(s.buf)) {
		return fmt.Errorf("soft: copy source %dx%d exceeds staging surface", w, h)
	}
	for r := uint32(0); r < rows; r++ {
		copy(s.buf[r*s.rowPitch:r*s.rowPitch+tight], src[r*tight:(r+1)*tight])
	}
	return nil
}
