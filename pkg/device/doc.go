// Package device implements the simulated field devices exposed through
// the register store: switches and buttons, in manual and autonomous
// variants.
//
// A device allocates its registers during Initialize and owns them for
// its lifetime. Autonomous variants implement Updater; Start launches
// exactly one update goroutine for them. Stop is cooperative: it cancels
// the loop's context and waits up to StopTimeout for it to exit, then
// returns regardless. Loop exit is therefore eventual, not guaranteed at
// the moment Stop returns.
package device
