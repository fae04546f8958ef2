// Package geom holds the small amount of planar geometry shared by the
// perception and navigation packages: ground-plane points in the robot
// frame, angle arithmetic and the turning-circle model used both for
// reachability checks and for VFH+ trajectory masking.
//
// Robot frame convention: +X points forward along the robot's heading,
// +Y points to the robot's left. Angles are in radians, positive to the left.
package geom
