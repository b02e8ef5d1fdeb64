// Package compiler turns scenario text into an initial engine.LoopState.
//
// The compiler is a line-oriented, single-pass classifier, not a parser. It
// never executes the text. It recognizes a fixed vocabulary:
//
//	console.log('X')              print call (single, double or backtick quotes)
//	setTimeout(..., 0)            macrotask hint
//	Promise.resolve().then(       microtask hint
//	queueMicrotask(               microtask hint
//	requestAnimationFrame(        render hint
//
// A single Context value is folded over the lines. Hints set it, a print call
// queues a placeholder task into the queue the context maps to, and a closing
// token ("});", "})" or ");") resets it to ContextSync after the line.
//
// # Known Limitations
//
// These are part of the contract and are covered by tests:
//
//   - Only the first print call on a line is queued.
//   - There is no nesting awareness: the last hint seen wins and the first
//     closing token resets, so nested callbacks are flattened.
//   - The zero-delay hint must be on the same line as "setTimeout". In a
//     multi-line setTimeout block the body is classified as sync, because the
//     delay only appears on the closing line.
//   - Any other delay than a literal 0 is not recognized.
package compiler
