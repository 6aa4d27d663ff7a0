// Package replay feeds a recorded intersection scene through a
// junction.Scene frame by frame and writes one JSON report per frame.
//
// Recordings carry the tracker output that would normally arrive live:
// lane definitions, the crossing region and per-frame detections. Plate
// readings captured at recording time stand in for the recogniser, so a
// replay is deterministic and needs no recognition backend.
package replay
