// Package parsers provides implementations of the GuideParser interface
// for the document formats found in a corpus. Each parser knows how to
// extract guide structure from a specific MIME type.
//
// Parsers are registered with the Registry at startup.
package parsers
