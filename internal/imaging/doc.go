// Package imaging provides the raster operations used around plate
// recognition: frame preparation, plate cropping and enhancement, Canny edge
// maps, frame annotation, JPEG encoding and a cached image loader.
//
// All operations work with standard Go image.Image types and use a coordinate
// system where (0,0) is at the top-left corner, X increases rightward, and Y
// increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, Min is inclusive (top-left), Max is exclusive (bottom-right)
//
// Images returned by this package always have their bounds anchored at (0,0),
// even when the input image is a sub-image with a non-zero origin.
//
// # Thread Safety
//
// The FrameCache type is safe for concurrent use. Individual image operations
// are stateless and can be called concurrently on different images.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Regions outside image bounds or empty regions
//   - File I/O errors during image loading
//   - Encoding errors during image output
package imaging
