// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides the schema-validated decoding shared by the
// manifest parser and the build cache.
//
// Decoding follows three steps:
//
//  1. Compile the embedded schema
//  2. Compile user data (CUE or strict JSON) and unify it with the schema
//  3. Validate and decode into a Go value
//
// # Usage
//
//	//go:embed manifest_schema.cue
//	var schemaBytes []byte
//
//	result, err := cueutil.ParseAndDecode[rawManifest](
//	    schemaBytes,
//	    data,
//	    "#Manifest",
//	    cueutil.WithFilename("manifest.json"),
//	    cueutil.WithJSON(),
//	)
//	if err != nil {
//	    return nil, err // *ValidationError naming the offending field
//	}
//
// Encode renders Go values back to formatted CUE source.
package cueutil
