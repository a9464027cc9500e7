// Package macro implements macro recording, macro playback and the
// repeat slot used by the "." command.
//
// # Recording
//
// A Recorder captures keys as the user typed them, before any mapping is
// applied, and stores them in a register when the recording stops:
//
//	rec := macro.NewRecorder(store)
//	rec.StartRecording('a')   // qa
//	rec.Record(ev)            // every typed key
//	rec.StopRecording(1)      // q, dropped from the macro
//
// Recording into an uppercase register appends to it.
//
// # Playback
//
// A Player feeds the keys of a register back through the dispatch loop.
// Registers written as text are played as typed characters. @@ replays
// the last played register and @: the last command line. Playback stops
// at the first error.
//
// # Repeat
//
// A Repeater keeps the last buffer change as a Change, split into count,
// operator, motion and insert tail, so "." can replay it with a new count.
// Changes noted while a repeat is replaying are ignored.
package macro
