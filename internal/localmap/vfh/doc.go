// Package vfh implements the VFH+ reactive obstacle avoidance method of
// Ulrich and Borenstein over the egocentric occupancy grid.
//
// A call runs five stages:
//
//  1. Primary polar histogram: every occupied cell raises each sector
//     within its enlargement angle to at least the cell's distance-decayed
//     magnitude (saturating max, not a sum).
//  2. Binary histogram: two-threshold hysteresis on the primary histogram.
//     This is the only stage with memory; it lives in State.
//  3. Masked histogram: sectors a minimum-radius left or right arc cannot
//     reach without hitting an occupied cell are blocked.
//  4. Candidate directions from each opening (run of open sectors).
//  5. Cost: weighted angular distance to the target, to straight ahead and
//     to the previously chosen direction.
//
// Sectors span [+π/2, -π/2] left to right: sector 0 points left, sector
// ZeroSector points straight ahead. Geometry holds the per-cell values that
// depend only on the grid layout and can be shared between agents; each
// agent owns its State.
package vfh
