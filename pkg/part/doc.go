// Package part defines the core part-catalog data structures for Tenon:
// axis-tagged connectors, collision shape descriptors, immutable part
// templates, and the catalog that holds them.
package part
