// Package acquire downloads model artifact sets onto local storage.
//
// An Orchestrator runs one acquisition attempt at a time. It short-circuits
// when the destination already holds the completion marker, otherwise it
// tries the external downloader (ToolStrategy) and falls back to fetching
// files directly from the hub (DirectStrategy) only when the tool is not
// installed. A tool that was launched and failed ends the attempt.
//
// Progress is kept in a State record owned by a Tracker. Every mutation is a
// closure applied by the tracker's single writer goroutine; readers get whole
// snapshots through State() or a subscription channel.
package acquire
