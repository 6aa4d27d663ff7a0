// Package junction owns the per-track state model and the rule checks that
// infer traffic violations at a monitored intersection.
//
// Responsibilities: bounded center history, lane assignment, motion and
// heading classification, and the ordered per-tick violation checks
// (stop line, red-light motion, lane guidance, pedestrian yield).
// Key types: Vehicle, Pedestrian, Lane, Evaluator, Scene.
//
// Detection, tracking association and plate recognition are external
// collaborators; this package only consumes their outputs. No rendering,
// alerting or persistence code is allowed here.
package junction
