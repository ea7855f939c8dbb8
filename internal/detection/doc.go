// Package detection finds plates and plate corners.
//
// # Corner Detection
//
// CornerDetector works on the edge map of a cropped plate image:
//
//  1. Line segments: a Hough transform votes in (rho, theta) space and the
//     edge pixels under each peak are split into gap-bounded segments. Only
//     segments at least 0.3 x min(height, width) long are kept.
//  2. Intersections: every pair of segments crossing at a useful angle is
//     intersected, keeping points inside the image.
//  3. Exclusion: points in the central third of the plate are discarded.
//  4. Clustering: k-means with k=4 seeded at the crop's four corners, so each
//     cluster converges on one physical corner.
//  5. Ordering: the four centers are sorted clockwise around their centroid.
//
// Any stage that leaves too little to work with yields ErrNoCorners, which
// callers treat as "use the crop unrectified".
//
// # Plate Regions
//
// EdgeDensityPlateDetector is a heuristic scene-level detector based on edge
// density in plate-shaped windows. Trained detectors can replace it behind
// the same DetectPlates signature.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Boxes use inclusive top-left and exclusive bottom-right
package detection
