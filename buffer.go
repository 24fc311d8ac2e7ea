package reactor

// Buffer is a growable byte region with independent head and tail
// indices, the Go port of handy's net.h Buffer: appends grow the tail,
// Consume advances the head, and MakeRoom shifts the payload back to the
// front instead of reallocating when payload plus request is under half
// the capacity.
type Buffer struct {
	buf    []byte
	b, e   int
	suggest int
}

const defaultSuggestSize = 512

// NewBuffer returns an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{suggest: defaultSuggestSize}
}

// Size returns the number of unread bytes.
func (buf *Buffer) Size() int { return buf.e - buf.b }

// Empty reports whether there are no unread bytes.
func (buf *Buffer) Empty() bool { return buf.e == buf.b }

// Bytes returns the unread region. The slice aliases the Buffer's backing
// array and is only valid until the next mutating call.
func (buf *Buffer) Bytes() []byte { return buf.buf[buf.b:buf.e] }

// Slice returns the unread region as a Slice, handy's implicit Buffer ->
// Slice conversion made explicit.
func (buf *Buffer) Slice() Slice { return Slice(buf.Bytes()) }

// Clear drops all buffered data and releases the backing array.
func (buf *Buffer) Clear() {
	buf.buf = nil
	buf.b, buf.e = 0, 0
}

// SetSuggestSize sets the size MakeRoom grows to when expansion is
// needed and the tail is nearly empty, handy's Buffer::exp_.
func (buf *Buffer) SetSuggestSize(n int) {
	if n > 0 {
		buf.suggest = n
	}
}

// space returns how many bytes can be appended at e before any move or
// reallocation is required.
func (buf *Buffer) space() int { return cap(buf.buf) - buf.e }

// MakeRoom ensures len bytes can be appended at the tail, moving the
// existing data to the front or reallocating as needed, and returns the
// tail position to write at. It does not advance the tail; callers use
// AllocRoom or Append for that.
func (buf *Buffer) MakeRoom(n int) int {
	switch {
	case buf.e+n <= cap(buf.buf):
		// fits as-is
	case buf.Size()+n < cap(buf.buf)/2:
		buf.moveHead()
	default:
		buf.expand(n)
	}
	return buf.e
}

func (buf *Buffer) moveHead() {
	copy(buf.buf, buf.buf[buf.b:buf.e])
	buf.e -= buf.b
	buf.b = 0
}

func (buf *Buffer) expand(n int) {
	ncap := buf.suggest
	if c := 2 * cap(buf.buf); c > ncap {
		ncap = c
	}
	if s := buf.Size() + n; s > ncap {
		ncap = s
	}
	nb := make([]byte, ncap)
	copy(nb, buf.buf[buf.b:buf.e])
	buf.e -= buf.b
	buf.b = 0
	buf.buf = nb
}

// AllocRoom grows the buffer by n bytes at the tail and returns that new
// n-byte region for the caller to write into (the bytes before it keep
// their contents; the new region's contents are unspecified).
func (buf *Buffer) AllocRoom(n int) []byte {
	buf.MakeRoom(n)
	if buf.e+n > len(buf.buf) {
		buf.buf = buf.buf[:buf.e+n]
	}
	start := buf.e
	buf.e += n
	return buf.buf[start:buf.e]
}

// Tail ensures n writable bytes exist at the current end and returns
// that region without advancing it, for syscalls (like read(2)) that
// need a destination slice before they know how many bytes landed.
// Call Grow with the actual count afterwards.
func (buf *Buffer) Tail(n int) []byte {
	buf.MakeRoom(n)
	if buf.e+n > len(buf.buf) {
		buf.buf = buf.buf[:buf.e+n]
	}
	return buf.buf[buf.e : buf.e+n]
}

// Grow advances the tail by n bytes already written via a slice
// returned from Tail.
func (buf *Buffer) Grow(n int) { buf.e += n }

// Append copies p onto the tail of the buffer.
func (buf *Buffer) Append(p []byte) *Buffer {
	copy(buf.AllocRoom(len(p)), p)
	return buf
}

// AppendString copies s onto the tail of the buffer.
func (buf *Buffer) AppendString(s string) *Buffer {
	copy(buf.AllocRoom(len(s)), s)
	return buf
}

// Consume advances the head past n bytes, clearing the buffer entirely
// once it becomes empty so a long-lived connection's buffer doesn't
// retain a growing-then-idle backing array.
func (buf *Buffer) Consume(n int) *Buffer {
	buf.b += n
	if buf.Size() == 0 {
		buf.Clear()
	}
	return buf
}

// Absorb moves other's contents into buf. If buf is empty the two
// backing arrays are swapped (O(1)); otherwise other's bytes are copied
// onto buf's tail and other is cleared. Either way other ends up empty,
// matching handy's Buffer::absorb.
func (buf *Buffer) Absorb(other *Buffer) *Buffer {
	if other == buf {
		return buf
	}
	if buf.Empty() {
		buf.buf, other.buf = other.buf, buf.buf
		buf.b, other.b = other.b, buf.b
		buf.e, other.e = other.e, buf.e
		buf.suggest, other.suggest = other.suggest, buf.suggest
		other.Clear()
		return buf
	}
	buf.Append(other.Bytes())
	other.Clear()
	return buf
}
