// Package formats provides readers for brush map source files and the
// texture archives they reference.
package formats

// Note: MAP (Quake/Valve 220 text) is implemented in map.go
// Note: WAD (WAD2/WAD3 texture directory) is implemented in wad.go
