// Package html provides a Normaliser implementation for HTML documents.
// It picks the main content region, drops navigation and other page chrome,
// and splits the remaining paragraphs into sections by heading.
package html
