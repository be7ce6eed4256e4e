// Package html reduces HTML message bodies to readable plain text,
// dropping scripts, styles and markup and decoding entities.
package html
