/*
 * ramachandran.go, part of gotraj
 *
 * Copyright 2012 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU Lesser General Public License as published by
    the Free Software Foundation, either version 2.1 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU Lesser General Public License
    along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
*/

package chemplot

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

func basicRamaPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Padding = vg.Millimeter * 3
	p.Title.Text = title
	p.X.Label.Text = "Phi"
	p.Y.Label.Text = "Psi"
	//Constant axes
	p.X.Min = -180
	p.X.Max = 180
	p.Y.Min = -180
	p.Y.Max = 180
	p.Add(plotter.NewGrid())
	return p
}

// takes hue (0-360), v and s (0-1), returns r,g,b (0-255)
func iHVS2RGB(h, v, s float64) (uint8, uint8, uint8) {
	var i, f, p, q, t float64
	var r, g, b float64
	maxcolor := 255.0
	conversion := maxcolor * v
	if s == 0.0 {
		return uint8(conversion), uint8(conversion), uint8(conversion)
	}
	h = h / 60
	i = math.Floor(h)
	f = h - i
	p = v * (1 - s)
	q = v * (1 - s*f)
	t = v * (1 - s*(1-f))
	switch int(i) {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default: //case 5
		r, g, b = v, p, q
	}
	return uint8(r * conversion), uint8(g * conversion), uint8(b * conversion)
}

// colors returns the key-th of steps colors, going from red to violet, skipping
// the yellows, which are hard to see.
func colors(key, steps int) color.RGBA {
	norm := 260.0 / float64(steps)
	hp := float64((float64(key) * norm) + 20.0)
	var h float64
	if hp < 55 {
		h = hp - 20.0
	} else {
		h = hp + 20.0
	}
	r, g, b := iHVS2RGB(h, 1, 1)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func getShape(tagged int) (draw.GlyphDrawer, error) {
	switch tagged {
	case 0:
		return draw.PyramidGlyph{}, nil
	case 1:
		return draw.CircleGlyph{}, nil
	case 2:
		return draw.SquareGlyph{}, nil
	case 3:
		return draw.CrossGlyph{}, nil
	default:
		return draw.RingGlyph{}, fmt.Errorf("maximum number of taggable residues is 4")
	}
}

// RamaPlot produces a Ramachandran plot for the phi and psi dihedrals, in degrees, in data,
// and saves it to filename. The format is given by the extension of filename.
// Points are colored by their order in data. The points whose indexes are in tag (at most 4)
// are drawn with distinct shapes.
func RamaPlot(data [][2]float64, tag []int, title, filename string) error {
	if len(data) == 0 {
		return fmt.Errorf("chemplot: no data to plot")
	}
	if len(tag) > 4 {
		return fmt.Errorf("chemplot: %d points tagged, at most 4 can be", len(tag))
	}
	p := basicRamaPlot(title)
	var tagged int
	for key, val := range data {
		s, err := plotter.NewScatter(plotter.XYs{{X: val[0], Y: val[1]}})
		if err != nil {
			return err
		}
		if isInInt(tag, key) {
			s.GlyphStyle.Shape, _ = getShape(tagged)
			s.GlyphStyle.Radius = vg.Points(4)
			tagged++
		}
		s.GlyphStyle.Color = colors(key, len(data))
		p.Add(s)
	}
	return p.Save(4*vg.Inch, 4*vg.Inch, filename)
}
