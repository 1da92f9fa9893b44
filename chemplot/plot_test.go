/*
 * plot_test.go
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

package chemplot

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func nonEmpty(Te *testing.T, name string) {
	st, err := os.Stat(name)
	if err != nil {
		Te.Fatal(err)
	}
	if st.Size() == 0 {
		Te.Errorf("%s is empty", name)
	}
}

func TestRamaPlot(Te *testing.T) {
	data := make([][2]float64, 20)
	for i := range data {
		data[i] = [2]float64{-60 - float64(i), -45 + 2*float64(i)}
	}
	name := filepath.Join(Te.TempDir(), "rama.png")
	if err := RamaPlot(data, []int{0, 5}, "Test Ramachandran", name); err != nil {
		Te.Fatal(err)
	}
	nonEmpty(Te, name)
	if err := RamaPlot(data, []int{0, 1, 2, 3, 4}, "Test", name); err == nil {
		Te.Errorf("tagging 5 points should fail")
	}
	if c := colors(0, 10); c.R != 255 || c.A != 255 {
		Te.Errorf("the first color should be red, got %v", c)
	}
}

func TestSeriesAndHistogram(Te *testing.T) {
	dir := Te.TempDir()
	a := make([]float64, 50)
	b := make([]float64, 50)
	for i := range a {
		a[i] = math.Sin(float64(i) / 5)
		b[i] = math.Cos(float64(i) / 5)
	}
	name := filepath.Join(dir, "series.svg")
	if err := Series([][]float64{a, b}, []string{"sin", "cos"}, "RMSD", "RMSD (A)", name); err != nil {
		Te.Fatal(err)
	}
	nonEmpty(Te, name)
	if err := Series([][]float64{a}, []string{"a", "b"}, "", "", name); err == nil {
		Te.Errorf("mismatched legend names should fail")
	}
	name = filepath.Join(dir, "hist.png")
	if err := Histogram(a, 10, "Distribution", "sin", name); err != nil {
		Te.Fatal(err)
	}
	nonEmpty(Te, name)
}
