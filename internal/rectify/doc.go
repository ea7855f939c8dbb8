// Package rectify removes perspective skew from a cropped plate image.
//
// Given the plate's four corners, ComputeHomography solves for the 3x3
// projective transform taking them onto the crop's own rectangle, and Warp
// resamples the crop through its inverse. Rectifier combines the two and
// falls back to the unwarped crop whenever rectification is not possible.
package rectify
