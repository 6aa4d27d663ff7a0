// Package recognition wraps the external licence-plate recogniser.
//
// The recogniser itself is a collaborator: this package only defines the
// capability (Recognizer), the max-confidence merge rule for readings, and
// two PlateReader strategies used by the junction evaluator:
//
//   - Inline calls the recogniser synchronously within the tick deadline.
//   - Pool dispatches recognition to a bounded set of workers and hands the
//     best reading back on a later tick.
//
// Because the merge rule is commutative and idempotent, late, reordered or
// dropped readings only delay adoption of a better plate.
package recognition
