// Package normalisers provides implementations of the Normaliser interface
// for the supported source kinds. Each normaliser reduces one content kind
// to plain text plus ordered, headed sections.
//
// Normalisers are registered with the Registry at startup.
package normalisers
