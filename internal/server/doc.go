// Package server is the operator-facing HTTP surface of plate-gate.
//
// It implements the pipeline's display sink: annotated frames are fanned out
// as an MJPEG stream and recognition events are pushed to websocket clients.
// The entries log and plate statuses are served as JSON.
//
// # Routes
//
//   - GET  /stream.mjpg: annotated frames (multipart/x-mixed-replace)
//   - GET  /ws: event and refresh messages
//   - GET  /api/entries?plate=&limit=: latest entries, newest first
//   - GET  /api/plates/:plate/status: registered status of a plate
//   - POST /api/loop/pause, POST /api/loop/resume: hold or release the frame loop
//   - GET  /metrics: Prometheus metrics
//   - GET  /healthz: liveness and loop state
//
// # Websocket messages
//
// Every message is a JSON object with a "type" field. Emitted recognitions
// are sent as "event" messages carrying the plate, confidences, status and a
// base64 JPEG of the rectified plate. On every refresh tick a "refresh"
// message carries the latest entries so clients can redraw the log.
package server
