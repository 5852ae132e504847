// Package execs runs rendered commands sequentially. Exactly one child
// process is alive at a time; the runner blocks on it, with the timeout as
// the only bounded wait, before starting the next command. A confirmation
// prompt is a blocking suspension point: the pipeline pauses until the user
// decides to keep waiting or to give up.
package execs
