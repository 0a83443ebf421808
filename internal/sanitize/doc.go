// Package sanitize turns arbitrary text into safe, bounded folder names and
// enforces path containment for every filesystem-touching operation.
package sanitize
