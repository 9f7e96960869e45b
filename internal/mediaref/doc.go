// Package mediaref parses media reference strings into a tagged form.
//
// Callers hand the picker core bare strings that may be plain
// filesystem paths, file:// paths, content:// URIs, or remote URLs.
// Parse decides the kind once; the rest of the core routes on the
// tagged Ref instead of re-inspecting prefixes at every call site.
package mediaref
