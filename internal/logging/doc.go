// Package logging sets up structured slog logging for corpusexplorer.
// Long-running commands write JSON lines to a size-rotated file under
// ~/.corpusexplorer/logs/ and echo them to stderr; interactive runs
// without a log file get a human-readable text handler instead.
package logging
