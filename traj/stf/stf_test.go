/*
 * stf_test.go
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
 */

package stf

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"

	traj "github.com/rmera/gotraj"
	v3 "github.com/rmera/gotraj/v3"
)

func testTrajectory(Te *testing.T, nframes, natoms int) *traj.Trajectory {
	ats := make([]*traj.Atom, natoms)
	for i := range ats {
		ats[i] = &traj.Atom{Name: "CA", ID: i + 1, MolName: "ALA", MolID: i/3 + 1, Chain: "A", Symbol: "C", Mass: 12}
	}
	top, err := traj.NewTopology(ats, nil)
	if err != nil {
		Te.Fatal(err)
	}
	data := make([]float64, 0, nframes*natoms*3)
	for f := 0; f < nframes; f++ {
		for a := 0; a < natoms; a++ {
			data = append(data, 1.2345*float64(a)-3, float64(f)*0.5, math.Cos(float64(a*f)))
		}
	}
	t, err := traj.New(top, traj.Block{Frames: nframes, Atoms: natoms, Data: data}, nil)
	if err != nil {
		Te.Fatal(err)
	}
	return t
}

func closeTo(a, b []float64, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

func TestSTFSaveLoad(Te *testing.T) {
	dir := Te.TempDir()
	t := testTrajectory(Te, 6, 7)
	t.SetCells([]float64{40, 41, 42, 90, 90, 120})
	for _, name := range []string{"test.stf", "test.stz", "test.str", "test.stl"} {
		name = filepath.Join(dir, name)
		if err := Save(name, t, map[string]string{"title": "test"}); err != nil {
			Te.Fatal(err)
		}
		r, header, err := New(name)
		if err != nil {
			Te.Fatal(err)
		}
		if header["title"] != "test" || header["prec"] != "2" {
			Te.Errorf("%s: wrong header %v", name, header)
		}
		r.Close()
		l, err := Load(name, t.Topology())
		if err != nil {
			Te.Fatal(err)
		}
		if l.NFrames() != 6 || !l.HasBox() {
			Te.Fatalf("%s: loaded %d frames, box: %v", name, l.NFrames(), l.HasBox())
		}
		if !closeTo(l.Coords().Data, t.Coords().Data, 0.0051) {
			Te.Errorf("%s: coordinates changed beyond the precision of the file", name)
		}
		if !closeTo(l.Cells(), t.Cells(), 1e-3) {
			Te.Errorf("%s: cells changed: %v", name, l.Cells()[:6])
		}
	}
	if _, err := Load(filepath.Join(dir, "test.stf"), testTrajectory(Te, 1, 3).Topology()); err == nil {
		Te.Errorf("loading with the wrong topology should fail")
	}
}

func TestSTFStream(Te *testing.T) {
	var b bytes.Buffer
	w, err := NewStreamWriter(&b, Zstd, 3, map[string]string{"prec": "4"})
	if err != nil {
		Te.Fatal(err)
	}
	c, _ := v3.NewMatrix([]float64{1.23456, -2, 3, 4, 5, 6, 7, 8, -9.87654})
	if err := w.WNext(c); err != nil {
		Te.Fatal(err)
	}
	if err := w.WNext(v3.Zeros(2)); err == nil {
		Te.Errorf("writing a frame with the wrong number of atoms should fail")
	}
	if err := w.WNext(c, []float64{10, 10, 10, 90, 90, 90}); err != nil {
		Te.Fatal(err)
	}
	if err := w.Close(); err != nil {
		Te.Fatal(err)
	}
	r, _, err := NewStreamReader(&b, Zstd)
	if err != nil {
		Te.Fatal(err)
	}
	got := v3.Zeros(3)
	cell := make([]float64, 6)
	if err := r.Next(got, cell); err != nil {
		Te.Fatal(err)
	}
	if !closeTo(got.RawData(), c.RawData(), 5e-5) || got.At(0, 0) != 1.2346 {
		Te.Errorf("wrong coordinates at precision 4: %v", got)
	}
	if !closeTo(cell, make([]float64, 6), 0) {
		Te.Errorf("a frame without box should give a zero cell, got %v", cell)
	}
	if err := r.Next(nil, cell); err != nil {
		Te.Fatal(err)
	}
	if !closeTo(cell, []float64{10, 10, 10, 90, 90, 90}, 1e-3) {
		Te.Errorf("wrong cell %v", cell)
	}
	err = r.Next(got)
	if _, ok := err.(traj.LastFrameError); !ok || !traj.IsLastFrame(err) || r.Readable() {
		Te.Errorf("expected the end of the trajectory, got %v", err)
	}
}

func TestSTFBadInput(Te *testing.T) {
	var b bytes.Buffer
	w, _ := NewStreamWriter(&b, Gzip, 2, nil)
	//frame with one atom missing.
	w.h.Write([]byte("1 2 3\n*\n"))
	w.Close()
	r, _, err := NewStreamReader(&b, Gzip)
	if err != nil {
		Te.Fatal(err)
	}
	err = r.Next(v3.Zeros(2))
	if err == nil || traj.IsLastFrame(err) {
		Te.Errorf("a short frame should be an error, got %v", err)
	} else if !strings.Contains(err.Error(), "1 atoms") {
		Te.Errorf("unexpected error message: %v", err)
	}
	if _, err := NewStreamWriter(&b, Zstd, 2, map[string]string{"prec": "-1"}); err == nil {
		Te.Errorf("a negative precision should be rejected")
	}
	if _, err := NewStreamWriter(&b, Zstd, 2, map[string]string{"bad**key": "1"}); err == nil {
		Te.Errorf("a header entry with the termination mark should be rejected")
	}
	if CompressionFor("a.stf") != Zstd || CompressionFor("a.STZ") != Gzip || CompressionFor("a.ctf") != Zstd {
		Te.Errorf("wrong compression guessed from the file name")
	}
}
