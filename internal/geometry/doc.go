// Package geometry provides the small set of planar primitives the corner
// detector is built on: integer points and segments, a crossing-angle test,
// exact segment intersection, and angular ordering around a centroid.
//
// # Coordinate System
//
// Points use image coordinates: origin at the top-left, X increasing to the
// right and Y increasing downward. Because Y points down, sorting by
// ascending atan2 angle around the centroid walks the points clockwise as
// they appear on screen, starting from the left side (top-left corner first
// for a roughly rectangular quadrilateral).
package geometry
