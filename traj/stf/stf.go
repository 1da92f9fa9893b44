/*
 * stf.go, part of gotraj.
 *
 * Copyright 2021 Raul Mera <rauldotmeraatusachdotcl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package stf

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/lzw"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	traj "github.com/rmera/gotraj"
	v3 "github.com/rmera/gotraj/v3"
)

const (
	lzwLitwidth int = 8
	//DefaultPrec is the number of decimal places kept for each coordinate, unless the header says otherwise.
	DefaultPrec int = 2
)

// Compression is the compression algorithm of a STF stream.
type Compression byte

const (
	Zstd  Compression = 's'
	Gzip  Compression = 'z'
	Flate Compression = 'r'
	LZW   Compression = 'l'
)

// CompressionFor returns the compression used for a file, given its name.
// The last letter decides: "stf" and "ctf" are zstd, "stz" gzip, "str" flate and "stl" lzw.
func CompressionFor(name string) Compression {
	if name == "" {
		return Zstd
	}
	switch c := Compression(strings.ToLower(name)[len(name)-1]); c {
	case Gzip, Flate, LZW:
		return c
	default:
		return Zstd
	}
}

func compressor(w io.Writer, c Compression, level int) (io.WriteCloser, error) {
	switch c {
	case LZW:
		return lzw.NewWriter(w, lzw.MSB, lzwLitwidth), nil
	case Gzip:
		return gzip.NewWriterLevel(w, level)
	case Flate:
		return flate.NewWriter(w, level)
	default:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	}
}

// zstd.Decoder has a Close method without a return value, so it is not an io.ReadCloser.
type zstdCloser struct {
	*zstd.Decoder
}

func (z zstdCloser) Close() error {
	z.Decoder.Close()
	return nil
}

func decompressor(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case LZW:
		return lzw.NewReader(r, lzw.MSB, lzwLitwidth), nil
	case Gzip:
		return gzip.NewReader(r)
	case Flate:
		return flate.NewReader(r), nil
	default:
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zstdCloser{d}, nil
	}
}

//Write!

// StfW writes STF trajectories.
type StfW struct {
	f         io.Closer //the underlying file, if we opened it.
	h         io.WriteCloser
	natoms    int
	filename  string
	writeable bool
	prec      int
	mult      float64
}

// NewWriter creates the file name and returns a handle to write natoms-atom frames to it.
// The compression is chosen from the name (see CompressionFor). The optional level is
// passed to the compressor. The header keys are written sorted. A "prec" key sets the
// precision of the file.
func NewWriter(name string, natoms int, header map[string]string, level ...int) (*StfW, error) {
	f, err := os.Create(name)
	if err != nil {
		return nil, &Error{err.Error(), name, []string{"NewWriter"}, true}
	}
	S, err := NewStreamWriter(f, CompressionFor(name), natoms, header, level...)
	if err != nil {
		f.Close()
		return nil, errDecorate(err, "NewWriter")
	}
	S.f = f
	S.filename = name
	return S, nil
}

// NewStreamWriter returns a handle that writes a STF trajectory with natoms atoms per frame,
// compressed with c, to w. Closing the handle doesn't close w.
func NewStreamWriter(w io.Writer, c Compression, natoms int, header map[string]string, level ...int) (*StfW, error) {
	lvl := 9
	if c == Zstd {
		lvl = 11
	}
	if len(level) > 0 {
		lvl = level[0]
	}
	if natoms <= 0 {
		return nil, &Error{fmt.Sprintf("can't write frames with %d atoms", natoms), "", []string{"NewStreamWriter"}, true}
	}
	S := &StfW{natoms: natoms, prec: DefaultPrec}
	var err error
	S.h, err = compressor(w, c, lvl)
	if err != nil {
		return nil, &Error{"can't start the compressor: " + err.Error(), "", []string{"NewStreamWriter"}, true}
	}
	if header == nil {
		header = map[string]string{}
	}
	if p, ok := header["prec"]; ok {
		prec, err := strconv.Atoi(p)
		if err != nil || prec < 1 {
			return nil, &Error{fmt.Sprintf("invalid precision %q", p), "", []string{"NewStreamWriter"}, true}
		}
		S.prec = prec
	}
	S.mult = math.Pow(10, float64(S.prec))
	keys := make([]string, 0, len(header)+1)
	for k := range header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	fmt.Fprintf(&b, "prec=%d\n", S.prec)
	for _, k := range keys {
		if k == "prec" {
			continue
		}
		if strings.ContainsAny(k, "=\n") || strings.Contains(header[k], "\n") || strings.Contains(k+header[k], "**") {
			return nil, &Error{fmt.Sprintf("invalid header entry %q", k), "", []string{"NewStreamWriter"}, true}
		}
		fmt.Fprintf(&b, "%s=%s\n", k, header[k])
	}
	fmt.Fprintf(&b, "** %d\n", natoms)
	if _, err := io.WriteString(S.h, b.String()); err != nil {
		return nil, &Error{"can't write header: " + err.Error(), "", []string{"NewStreamWriter"}, true}
	}
	S.writeable = true
	return S, nil
}

// Close flushes the compressor and closes the file, if the handle opened one.
func (S *StfW) Close() error {
	if S == nil || !S.writeable {
		return nil
	}
	S.writeable = false
	err := S.h.Close()
	if S.f != nil {
		if err2 := S.f.Close(); err == nil {
			err = err2
		}
	}
	if err != nil {
		return &Error{err.Error(), S.filename, []string{"Close"}, true}
	}
	return nil
}

// Len returns the number of atoms per frame.
func (S *StfW) Len() int {
	return S.natoms
}

// WNext writes a frame. If a unit cell (3 lengths, 3 angles) is given, its box
// vectors are written with the frame.
func (S *StfW) WNext(coord *v3.Matrix, cell ...[]float64) error {
	if !S.writeable {
		return &Error{TrajUnIniWrite, S.filename, []string{"WNext"}, true}
	}
	if coord == nil {
		return &Error{NilCoordinates, S.filename, []string{"WNext"}, true}
	}
	if v := coord.NVecs(); v != S.natoms {
		return &Error{fmt.Sprintf("%d coordinates given, but %d expected", v, S.natoms), S.filename, []string{"WNext"}, true}
	}
	var b strings.Builder
	for i := 0; i < S.natoms; i++ {
		fmt.Fprintf(&b, "%d %d %d\n", encode(coord.At(i, 0), S.mult), encode(coord.At(i, 1), S.mult), encode(coord.At(i, 2), S.mult))
	}
	var box *v3.Matrix
	if len(cell) > 0 {
		box = traj.CellToVectors(cell[0])
	}
	if box != nil {
		d := box.RawData()
		b.WriteString("*")
		for _, v := range d {
			b.WriteString(" ")
			b.WriteString(strconv.FormatFloat(v, 'f', 4, 64))
		}
		b.WriteString("\n")
	} else {
		b.WriteString("*\n")
	}
	if _, err := io.WriteString(S.h, b.String()); err != nil {
		return &Error{err.Error(), S.filename, []string{"WNext"}, true}
	}
	return nil
}

func encode(v, mult float64) int {
	return int(math.RoundToEven(v * mult))
}

//Read!

// StfR reads STF trajectories. It implements traj.FrameReader.
type StfR struct {
	f        io.Closer
	dec      io.ReadCloser
	h        *bufio.Reader
	natoms   int
	filename string
	mult     float64
	readable bool
}

// New opens the STF trajectory name for reading, and returns a pointer
// to the handle, a map with the metadata in the header, and error or nil.
func New(name string) (*StfR, map[string]string, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, &Error{UnableToOpen + ": " + err.Error(), name, []string{"New"}, true}
	}
	S, m, err := NewStreamReader(bufio.NewReader(f), CompressionFor(name))
	if err != nil {
		f.Close()
		if e, ok := err.(*Error); ok {
			e.filename = name
		}
		return nil, nil, errDecorate(err, "New")
	}
	S.f = f
	S.filename = name
	return S, m, nil
}

// NewStreamReader reads the header of the STF trajectory in r, compressed with c, and returns
// a handle to read its frames, and the header.
func NewStreamReader(r io.Reader, c Compression) (*StfR, map[string]string, error) {
	S := &StfR{natoms: -1}
	var err error
	S.dec, err = decompressor(r, c)
	if err != nil {
		return nil, nil, &Error{"can't read header: " + err.Error(), "", []string{"NewStreamReader"}, true}
	}
	S.h = bufio.NewReader(S.dec)
	m := make(map[string]string)
	for {
		str, err := S.h.ReadString('\n')
		if err != nil {
			S.dec.Close()
			return nil, nil, &Error{"can't read header: " + err.Error(), "", []string{"NewStreamReader"}, true}
		}
		str = strings.TrimSuffix(str, "\n")
		if strings.HasPrefix(str, "**") {
			nat := strings.Fields(str)
			if len(nat) < 2 {
				S.dec.Close()
				return nil, nil, &Error{fmt.Sprintf("can't read atom number from '%s'", str), "", []string{"NewStreamReader"}, true}
			}
			S.natoms, err = strconv.Atoi(nat[1])
			if err != nil || S.natoms <= 0 {
				S.dec.Close()
				return nil, nil, &Error{fmt.Sprintf("can't read atom number from '%s'", nat[1]), "", []string{"NewStreamReader"}, true}
			}
			break
		}
		k, v, ok := strings.Cut(str, "=")
		if !ok {
			S.dec.Close()
			return nil, nil, &Error{fmt.Sprintf("malformed header line '%s'", str), "", []string{"NewStreamReader"}, true}
		}
		m[k] = v
	}
	prec := DefaultPrec
	if p, ok := m["prec"]; ok {
		prec, err = strconv.Atoi(p)
		if err != nil || prec < 1 {
			log.Printf("Invalid precision %q in STF trajectory. Will assume the default", p)
			prec = DefaultPrec
		}
	}
	S.mult = math.Pow(10, float64(prec))
	S.readable = true
	return S, m, nil
}

// Readable returns true if the handle is readable (if it is possible to call Next on it)
func (S *StfR) Readable() bool {
	return S.readable
}

func (S *StfR) decode(line []byte, temp *[3]float64) error {
	s := strings.Fields(string(line))
	if len(s) != 3 {
		return fmt.Errorf("ill formated coordinates line, %d fields: %s", len(s), line)
	}
	for i, v := range s {
		f, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("can't parse coordinate %d (%s): %s", i, v, err.Error())
		}
		temp[i] = float64(f) / S.mult
	}
	return nil
}

// Next puts in c the coordinates for the next frame of the trajectory. If c is nil, the frame is
// read and checked, but discarded. If a slice with at least 6 elements is given, the unit cell
// of the frame (3 lengths and 3 angles) is put there, or zeros if the frame has no box.
// At the end of the trajectory, Next closes the handle and returns a traj.LastFrameError.
func (S *StfR) Next(c *v3.Matrix, box ...[]float64) error {
	if !S.readable {
		return &Error{TrajUnIniRead, S.filename, []string{"Next"}, true}
	}
	if c != nil && c.NVecs() != S.natoms {
		return &Error{fmt.Sprintf("can't read %d atoms into a %d-atom matrix", S.natoms, c.NVecs()), S.filename, []string{"Next"}, true}
	}
	var temp [3]float64
	for i := 0; i < S.natoms; i++ {
		b, err := S.h.ReadBytes('\n')
		if err != nil {
			//the trajectory just ended.
			if err == io.EOF && i == 0 && len(b) == 0 {
				S.Close()
				return newlastFrameError(S.filename, "Next")
			}
			return &Error{ReadError + ": " + err.Error(), S.filename, []string{"Next"}, true}
		}
		if len(b) > 0 && b[0] == '*' {
			return &Error{fmt.Sprintf("%s: frame has %d atoms, expected %d", WrongFormat, i, S.natoms), S.filename, []string{"Next"}, true}
		}
		if err := S.decode(b, &temp); err != nil {
			return &Error{err.Error(), S.filename, []string{"Next"}, true}
		}
		if c == nil {
			continue
		}
		c.Set(i, 0, temp[0])
		c.Set(i, 1, temp[1])
		c.Set(i, 2, temp[2])
	}
	s, err := S.h.ReadString('\n')
	if err != nil && !(err == io.EOF && len(s) > 0) {
		return &Error{"can't read the frame termination mark: " + err.Error(), S.filename, []string{"Next"}, true}
	}
	if s[0] != '*' {
		return &Error{fmt.Sprintf("%s: frame has more than %d atoms", WrongFormat, S.natoms), S.filename, []string{"Next"}, true}
	}
	if len(box) == 0 || len(box[0]) < traj.CellLen {
		return nil
	}
	cell := box[0][:traj.CellLen]
	for i := range cell {
		cell[i] = 0
	}
	fields := strings.Fields(s)
	if len(fields) == 1 {
		return nil
	}
	if len(fields) != 10 {
		log.Printf("Trajectory %s has a frame with malformed box information: %s", S.filename, strings.TrimSpace(s))
		return nil
	}
	vecs := make([]float64, 9)
	for j, v := range fields[1:] {
		vecs[j], err = strconv.ParseFloat(v, 64)
		if err != nil {
			//we log and return no box, not an error.
			log.Printf("Failed to read box in a frame from %s", S.filename)
			return nil
		}
	}
	m, _ := v3.NewMatrix(vecs)
	copy(cell, traj.VectorsToCell(m))
	return nil
}

// Close closes the object, and marks it as unreadable
func (S *StfR) Close() {
	if !S.readable {
		return
	}
	S.dec.Close()
	if S.f != nil {
		S.f.Close()
	}
	S.readable = false
}

// Len returns the number of atoms in each frame of the trajectory.
func (S *StfR) Len() int {
	return S.natoms
}

// Load reads the whole STF trajectory name, which must have as many atoms as top.
// Frames with a box keep it as their unit cell.
func Load(name string, top *traj.Topology) (*traj.Trajectory, error) {
	S, _, err := New(name)
	if err != nil {
		return nil, errDecorate(err, "Load")
	}
	defer S.Close()
	if S.Len() != top.Len() {
		return nil, &Error{fmt.Sprintf("trajectory has %d atoms, topology %d", S.Len(), top.Len()), name, []string{"Load"}, true}
	}
	t := traj.NewEmpty(top)
	if err := t.Append(S); err != nil {
		return nil, errDecorate(err, "Load")
	}
	return t, nil
}

// Save writes every frame of t, with its unit cell if it has one, to the file name.
func Save(name string, t *traj.Trajectory, header map[string]string) error {
	S, err := NewWriter(name, t.NAtoms(), header)
	if err != nil {
		return errDecorate(err, "Save")
	}
	err = t.Apply(func(f *traj.Frame) error {
		return S.WNext(f.Coords, f.Cell)
	})
	if err != nil {
		S.Close()
		return errDecorate(err, "Save")
	}
	return errDecorate(S.Close(), "Save")
}

//Errors

// errDecorate decorates err with the caller's name if it can be decorated.
// nil is returned unchanged.
func errDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	if d, ok := err.(traj.Decorator); ok {
		d.Decorate(caller)
	}
	return err
}

// Error is the general structure for STF trajectory errors. It fullfills traj.TrajError
type Error struct {
	message  string
	filename string //the input file that has problems, or empty string if none.
	deco     []string
	critical bool
}

func (err *Error) Error() string {
	return fmt.Sprintf("stf file %s error: %s", err.filename, err.message)
}

// Decorate Adds new information to the error
func (err *Error) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

// FileName returns the file to which the failing trajectory was associated
func (err *Error) FileName() string { return err.filename }

// Format returns the format of the file (always "stf") associated to the error
func (err *Error) Format() string { return "stf" }

// Critical returns true if the error is critical, false otherwise
func (err *Error) Critical() bool { return err.critical }

const (
	TrajUnIniRead  = "Traj object uninitialized to read"
	TrajUnIniWrite = "Traj object uninitialized to write"
	ReadError      = "Error reading frame"
	UnableToOpen   = "Unable to open file"
	NilCoordinates = "Given nil coordinates"
	WrongFormat    = "Wrong format in the STF file or frame"
)

// lastFrameError implements traj.LastFrameError
type lastFrameError struct {
	deco     []string
	fileName string
}

// NormalLastFrameTermination does nothing
func (E *lastFrameError) NormalLastFrameTermination() {}

func (E *lastFrameError) FileName() string { return E.fileName }

func (E *lastFrameError) Error() string { return "EOF" }

func (E *lastFrameError) Critical() bool { return false }

func (E *lastFrameError) Format() string { return "stf" }

func (E *lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func newlastFrameError(filename string, caller string) *lastFrameError {
	return &lastFrameError{fileName: filename, deco: []string{caller}}
}
