// Package app is the composition root for pacterm.
//
// Run wires configuration, the on-disk package index, the pacman and AUR
// clients, and the background workers together, then hands everything to the
// TUI. Workers communicate with the UI model exclusively over channels; the
// model never performs blocking I/O itself.
//
// A background refresher keeps the official index current for the lifetime
// of the process. All subsystems stop when the root context is cancelled,
// which the entry point ties to SIGINT and SIGTERM.
package app
