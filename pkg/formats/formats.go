// Package formats provides decoders and encoders for the model and scene
// file formats the editor reads and writes.
package formats
