// Package app wires one matchgridgo run together: the App struct, its
// configuration, and the startup-to-shutdown lifecycle, independent of
// whichever entrypoint (CLI, test harness) drives it.
package app
