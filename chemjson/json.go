/*
 * json.go, part of gotraj.
 *
 *
 * Copyright 2012 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
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
 *
 */

package chemjson

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	traj "github.com/rmera/gotraj"
	v3 "github.com/rmera/gotraj/v3"
)

// Topology is the serialized form of a traj.Topology.
type Topology struct {
	Atoms []*traj.Atom
	Bonds [][2]int `json:",omitempty"`
	//Coords, if present, holds one structure, 3 numbers per atom. It is used
	//to guess the bonds when none are given.
	Coords []float64 `json:",omitempty"`
}

// A ready-to-serialize container for coordinates
type Coords struct {
	Coords []float64
}

// An easily JSON-serializable error type,
type Error struct {
	deco     []string
	IsError  bool   //If this is false (no error) all the other fields will be at their zero-values.
	Stage    string //"decode", "topology" or "encode".
	Function string //which go function gave the error
	Message  string //the error itself
}

// Error implements the error interface
func (J *Error) Error() string {
	return fmt.Sprintf("chemjson %s: %s", J.Stage, J.Message)
}

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (J *Error) Decorate(dec string) []string {
	if dec == "" {
		return J.deco
	}
	J.deco = append(J.deco, dec)
	return J.deco
}

// Critical is always true.
func (J *Error) Critical() bool { return true }

// Serializes the error. Panics on failure.
func (J *Error) Marshal() []byte {
	ret, err2 := json.Marshal(J)
	if err2 != nil {
		panic(strings.Join([]string{J.Error(), err2.Error()}, " - "))
	}
	return ret
}

// Takes an error and some additional info to create a json-marshal-ble error
func NewError(stage, function string, err error) *Error {
	return &Error{deco: []string{function}, IsError: true, Stage: stage, Function: function, Message: err.Error()}
}

// DecodeTopology reads a JSON object with the atoms, and optionally the bonds and one set of
// coordinates, of a system. If there are coordinates but no bonds, the bonds are guessed from
// the coordinates. Atoms without a mass get the mass of their element.
func DecodeTopology(r io.Reader) (*traj.Topology, error) {
	const funcname = "DecodeTopology"
	jt := new(Topology)
	if err := json.NewDecoder(r).Decode(jt); err != nil {
		return nil, NewError("decode", funcname, err)
	}
	bonds := make([]traj.Bond, 0, len(jt.Bonds))
	for _, b := range jt.Bonds {
		bonds = append(bonds, traj.Bond{At1: b[0], At2: b[1]})
	}
	top, err := traj.NewTopology(jt.Atoms, bonds)
	if err != nil {
		return nil, NewError("topology", funcname, err)
	}
	if err := top.AssignMasses(); err != nil {
		return nil, NewError("topology", funcname, err)
	}
	if len(jt.Bonds) == 0 && len(jt.Coords) > 0 {
		c, err := v3.NewMatrix(jt.Coords)
		if err != nil {
			return nil, NewError("topology", funcname, err)
		}
		if err := top.GuessBonds(c); err != nil {
			return nil, NewError("topology", funcname, err)
		}
	}
	return top, nil
}

// ReadTopologyFile decodes the topology in the file name.
func ReadTopologyFile(name string) (*traj.Topology, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, NewError("decode", "ReadTopologyFile", err)
	}
	defer f.Close()
	top, err := DecodeTopology(bufio.NewReader(f))
	if err != nil {
		err.(*Error).Decorate("ReadTopologyFile")
	}
	return top, err
}

// EncodeTopology writes top, and if coords is not nil, a set of coordinates for it, as a JSON object.
func EncodeTopology(top *traj.Topology, coords *v3.Matrix, out io.Writer) error {
	const funcname = "EncodeTopology"
	jt := &Topology{Atoms: top.Atoms}
	for _, b := range top.Bonds {
		jt.Bonds = append(jt.Bonds, [2]int{b.At1, b.At2})
	}
	if coords != nil {
		if coords.NVecs() != top.Len() {
			return NewError("encode", funcname, fmt.Errorf("%d coordinates for %d atoms", coords.NVecs(), top.Len()))
		}
		jt.Coords = append([]float64(nil), coords.RawData()...)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", " ")
	if err := enc.Encode(jt); err != nil {
		return NewError("encode", funcname, err)
	}
	return nil
}

// Encodes a traj.Atomer into a JSON stream, one atom per line.
func EncodeAtoms(mol traj.Atomer, enc *json.Encoder) *Error {
	const funcname = "EncodeAtoms"
	if mol == nil {
		return nil //Its assumed to be intentional.
	}
	for i := 0; i < mol.Len(); i++ {
		if err := enc.Encode(mol.Atom(i)); err != nil {
			return NewError("encode", funcname, err)
		}
	}
	return nil
}

// Encodes a set of coordinates into JSON, one atom per line.
func EncodeCoords(coords *v3.Matrix, enc *json.Encoder) *Error {
	c := new(Coords)
	t := make([]float64, 3)
	for i := 0; i < coords.NVecs(); i++ {
		c.Coords = mat3Row(t, coords, i)
		if err := enc.Encode(c); err != nil {
			return NewError("encode", "chemjson.EncodeCoords", err)
		}
	}
	return nil
}

func mat3Row(dst []float64, coords *v3.Matrix, i int) []float64 {
	for j := range dst {
		dst[j] = coords.At(i, j)
	}
	return dst
}

// DecodeCoords decodes streams from a bufio.Reader containing atomnumber lines, each with
// a JSON Coords object, into a v3.Matrix with atomnumber rows.
func DecodeCoords(stream *bufio.Reader, atomnumber int) (*v3.Matrix, *Error) {
	const funcname = "DecodeCoords"
	rawcoords := make([]float64, 0, 3*atomnumber)
	for i := 0; i < atomnumber; i++ {
		line, err := stream.ReadBytes('\n')
		if err != nil && len(line) == 0 {
			return nil, NewError("decode", funcname, fmt.Errorf("only %d of %d atoms: %w", i, atomnumber, err))
		}
		ctemp := new(Coords)
		if err = json.Unmarshal(line, ctemp); err != nil {
			return nil, NewError("decode", funcname, err)
		}
		if len(ctemp.Coords) != 3 {
			return nil, NewError("decode", funcname, fmt.Errorf("atom %d has %d coordinates", i, len(ctemp.Coords)))
		}
		rawcoords = append(rawcoords, ctemp.Coords...)
	}
	coords, err := v3.NewMatrix(rawcoords)
	if err != nil {
		return nil, NewError("decode", funcname, err)
	}
	return coords, nil
}
