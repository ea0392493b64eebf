// Package store holds the current generated dataset. Regeneration replaces
// the dataset wholesale; readers always see one complete, immutable dataset.
package store
