// Package trigger turns ordinary messages into conversation turns.
//
// A message whose first whitespace-delimited token is the name of a room,
// followed by more text, runs that text as a turn in the room. Anything else
// is left unhandled for the rest of the pipeline.
package trigger
