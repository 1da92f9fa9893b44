/*
 * doc.go, part of gotraj.
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

// Package stf reads and writes the simple trajectory format, a compressed plain-text
// trajectory format that is easy to implement in any language.
//
// A STF stream is compressed (zstd by default; gzip, flate and lzw are also supported and
// chosen by the last letter of the file name) and contains only ASCII symbols.
//
// The header starts in the first line and ends with a line starting with "**", one or more
// spaces, and the number of atoms per frame. Every other header line is a key=value pair.
// The "prec" key gives the precision, a positive integer; this package writes it always.
//
// After the header, each frame has one line per atom, with the x, y and z coordinates in
// Angstrom, multiplied by 10^prec and rounded to integers. Each frame ends with a line
// starting with "*", optionally followed by the 9 components of the 3 box vectors, in
// Angstrom. Readers in this package turn those vectors into a unit cell of 3 lengths and
// 3 angles. The "**" sequence only appears as the header termination.
package stf
