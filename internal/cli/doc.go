// Package cli turns command-line arguments into an app.Config. Flags
// override the REACTGRID_* environment, and the deployment path may be given
// as a flag or as the single positional argument. Usage problems surface as
// an ExitError carrying the process exit code.
package cli
