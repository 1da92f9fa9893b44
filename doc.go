/*
 * doc.go, part of gotraj.
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
 */

/*
Package traj keeps molecular dynamics trajectories in memory and transforms them, frame by frame.

	**Capabilities**

	Stores the coordinates of all frames in one dense, frame-major slice,
	plus one unit cell (3 lengths, 3 angles) per frame, if available.

	Indexes trajectories with a small closed set of index kinds. Whether the
	result shares memory with the trajectory depends only on the kind:
		Int: live view of one frame.
		Range with step 1: view of the frames.
		Range with other steps, Frames: copy.
		Mask, AtomIndices: copy, with the atoms in the order the selection gives.
		Pair: frames first, then atoms, always a copy.

	Selects atoms with Amber-style masks (":1-10@CA", "!@H*", "::A & :ALA").

	Grows trajectories with Append, Join, and Merge (atoms of two trajectories side by side).

	Iterates over frames through a pipeline of stages, fixed when the iterator is built:
	autoimage, superposition onto a reference, translate, rotate, scale, center,
	principal axes alignment and atom selection.

	Splits the frames among workers for parallel analyses (PMap), and gathers the
	results in the original frame order.

Frames given by an iterator without the Copy option are live views: geometric
stages change the trajectory. Concurrent reads of a trajectory are safe, concurrent
writes to the same frames are not, and no locking is done.
*/
package traj
