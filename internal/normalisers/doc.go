// Package normalisers turns message bodies in wire formats into plain text.
// Message sources use them before flattening a message into an index item.
package normalisers
