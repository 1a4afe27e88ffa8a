// Package manager owns the in-memory model handle and serializes every
// lifecycle operation against it: load, generate and unload never overlap,
// and callers are served in arrival order.
//
// Files by concern:
//
//   - manager.go: Manager, Load/Generate/Unload/IsLoaded/Close.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - engine.go: Engine/Handle interfaces and engine selection.
//   - engine_llama.go: in-process go-llama.cpp engine (`-tags=llama`).
//   - engine_llama_stub.go: stub reporting the missing build tag.
//   - engine_server.go: llama-server subprocess engine.
//   - prompt.go: turn-delimited prompt template and default system prompt.
//   - errors.go: typed errors and IsX helpers.
//   - events.go, eventpub_memory.go: lifecycle event publishing.
//   - sanity.go: dependency checks reported by /status.
package manager
