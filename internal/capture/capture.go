// Copyright (c) 2024 Neomantra Corp
//
// Capture file format: a sequence of timestamped, self-length-prefixed
// TERA frames, optionally zstd-compressed. Adapted from the teacher's
// compressed_io.go (MakeCompressedWriter/MakeCompressedReader) and its
// visitor.go/null_visitor.go dispatch pattern, generalized from a fixed
// set of typed record callbacks to a single generic Frame callback since
// this codec's message set is not known until a schema directory is
// loaded at runtime.

package capture

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zstd"

	tera "github.com/neomantra/tera-go"
)

// entryHeaderSize is the fixed prefix written ahead of each captured
// frame: an 8-byte capture timestamp (Unix nanoseconds, little-endian).
const entryHeaderSize = 8

// Frame is one decoded capture entry.
type Frame struct {
	CapturedAt time.Time
	Opcode     int
	Name       string
	Raw        []byte
	Record     tera.Record
}

// Visitor receives decoded frames from a Scanner.
type Visitor interface {
	OnFrame(Frame) error
	OnStreamEnd() error
}

// NullVisitor implements Visitor as a no-op; embed it and override only
// the methods a caller needs.
type NullVisitor struct{}

func (NullVisitor) OnFrame(Frame) error { return nil }
func (NullVisitor) OnStreamEnd() error  { return nil }

// MakeCompressedWriter returns an io.Writer for filename ("-" means
// stdout), zstd-compressing the stream when filename ends in ".zst"/
// ".zstd" or useZstd is set. The returned closer must be deferred.
func MakeCompressedWriter(filename string, useZstd bool) (io.Writer, func(), error) {
	var writer io.Writer
	var closer io.Closer
	fileCloser := func() {
		if closer != nil {
			closer.Close()
		}
	}
	if filename != "-" {
		file, err := os.Create(filename)
		if err != nil {
			return nil, nil, err
		}
		writer, closer = file, file
	} else {
		writer = os.Stdout
	}

	if useZstd || strings.HasSuffix(filename, ".zst") || strings.HasSuffix(filename, ".zstd") {
		zw, err := zstd.NewWriter(writer)
		if err != nil {
			fileCloser()
			return nil, nil, err
		}
		return zw, func() { zw.Close(); fileCloser() }, nil
	}
	return writer, fileCloser, nil
}

// MakeCompressedReader returns an io.Reader for filename ("-" means
// stdin), zstd-decompressing when the name or useZstd says to.
func MakeCompressedReader(filename string, useZstd bool) (io.Reader, io.Closer, error) {
	var reader io.Reader
	var closer io.Closer
	if filename != "-" {
		file, err := os.Open(filename)
		if err != nil {
			return nil, nil, err
		}
		reader, closer = file, file
	} else {
		reader = os.Stdin
	}

	if useZstd || strings.HasSuffix(filename, ".zst") || strings.HasSuffix(filename, ".zstd") {
		zr, err := zstd.NewReader(reader)
		if err != nil {
			if closer != nil {
				closer.Close()
			}
			return nil, nil, err
		}
		return zr, readCloserFunc(zr.Close), nil
	}
	return reader, closer, nil
}

type readCloserFunc func()

func (f readCloserFunc) Close() error { f(); return nil }

// Writer appends timestamped frames to an underlying io.Writer.
type Writer struct {
	w io.Writer
}

func NewWriter(w io.Writer) *Writer { return &Writer{w: w} }

// WriteFrame writes capturedAt and buf (an already-Encode'd frame, whose
// own 4-byte header self-describes its length) as one capture entry.
func (cw *Writer) WriteFrame(capturedAt time.Time, buf []byte) error {
	var hdr [entryHeaderSize]byte
	binary.LittleEndian.PutUint64(hdr[:], uint64(capturedAt.UnixNano()))
	if _, err := cw.w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := cw.w.Write(buf)
	return err
}

// Scanner reads a sequence of capture entries, decoding each frame's
// opcode against reg to resolve a schema and produce a Record. Since the
// capture format does not retain which schema version produced a frame,
// Scanner resolves "*" (the newest loaded version) for every frame; a
// caller that needs a pinned version should decode Frame.Raw itself.
type Scanner struct {
	r   *bufio.Reader
	reg *tera.Registry
}

func NewScanner(r io.Reader, reg *tera.Registry) *Scanner {
	return &Scanner{r: bufio.NewReader(r), reg: reg}
}

// Run reads every entry until EOF, dispatching each to visitor.
func (s *Scanner) Run(visitor Visitor) error {
	for {
		frame, err := s.next()
		if err == io.EOF {
			return visitor.OnStreamEnd()
		}
		if err != nil {
			return err
		}
		if err := visitor.OnFrame(*frame); err != nil {
			return err
		}
	}
}

func (s *Scanner) next() (*Frame, error) {
	var hdr [entryHeaderSize]byte
	if _, err := io.ReadFull(s.r, hdr[:]); err != nil {
		return nil, err
	}
	capturedAt := time.Unix(0, int64(binary.LittleEndian.Uint64(hdr[:])))

	var lenPrefix [2]byte
	if _, err := io.ReadFull(s.r, lenPrefix[:]); err != nil {
		return nil, err
	}
	totalLength := binary.LittleEndian.Uint16(lenPrefix[:])
	if totalLength < 4 {
		return nil, fmt.Errorf("capture: implausible frame length %d", totalLength)
	}

	buf := make([]byte, totalLength)
	copy(buf, lenPrefix[:])
	if _, err := io.ReadFull(s.r, buf[2:]); err != nil {
		return nil, err
	}

	opcode := int(binary.LittleEndian.Uint16(buf[2:4]))
	name, _ := s.reg.NameForOpcode(opcode)

	frame := &Frame{CapturedAt: capturedAt, Opcode: opcode, Name: name, Raw: buf}
	if name != "" {
		if schema, err := s.reg.Resolve(name, "*"); err == nil {
			if record, err := tera.Decode(s.reg, schema, buf); err == nil {
				frame.Record = record
			}
		}
	}
	return frame, nil
}

// Stats summarizes a capture stream for the CLI's "capture-dump"
// command, formatted with go-humanize the way the teacher's CLI tools
// report byte counts and durations.
type Stats struct {
	FrameCount  int
	ByteCount   int64
	FirstFrame  time.Time
	LastFrame   time.Time
	ByOpcode    map[int]int
}

func (st *Stats) String() string {
	return fmt.Sprintf("%d frames, %s, span %s",
		st.FrameCount, humanize.Bytes(uint64(st.ByteCount)), st.LastFrame.Sub(st.FirstFrame))
}

// CollectStats runs a Scanner over r to tally Stats. The Scanner still
// decodes every frame it reads; the Records are not kept.
func CollectStats(r io.Reader, reg *tera.Registry) (*Stats, error) {
	st := &Stats{ByOpcode: make(map[int]int)}
	scanner := NewScanner(r, reg)
	err := scanner.Run(statsVisitor{st: st})
	if err != nil {
		return nil, err
	}
	return st, nil
}

type statsVisitor struct {
	NullVisitor
	st *Stats
}

func (v statsVisitor) OnFrame(f Frame) error {
	v.st.FrameCount++
	v.st.ByteCount += int64(entryHeaderSize + len(f.Raw))
	v.st.ByOpcode[f.Opcode]++
	if v.st.FirstFrame.IsZero() || f.CapturedAt.Before(v.st.FirstFrame) {
		v.st.FirstFrame = f.CapturedAt
	}
	if f.CapturedAt.After(v.st.LastFrame) {
		v.st.LastFrame = f.CapturedAt
	}
	return nil
}
