// Package sav writes SPSS system files (.sav).
//
// The system file is the fixed interchange contract with downstream
// statistical tooling, so this package implements the documented dictionary
// and data layout directly rather than approximating it. Output is fully
// deterministic: identical variables, options and cases produce identical
// bytes, which the pipeline relies on for idempotent reruns.
//
// # File layout
//
// A system file is little-endian and starts with a 176-byte header ("$FL2"
// magic, product string, layout code, case size, compression, case count,
// bias, creation stamp, file label). The dictionary follows as a sequence of
// typed records:
//
//   - type 2: one record per 8-byte data element; numeric variables occupy
//     one element, strings ceil(width/8) elements with continuation records
//   - type 3+4: value labels plus the dictionary indexes they attach to
//   - type 7: extension records: integer info (subtype 3), float info
//     (subtype 4), variable display parameters (subtype 11), long variable
//     names (subtype 13), character encoding (subtype 20)
//   - type 999: dictionary terminator
//
// Case data follows uncompressed: every element is 8 bytes, numerics as
// IEEE 754 doubles (system-missing for absent answers), strings space-padded
// into 8-byte chunks.
//
// # Usage
//
//	w, err := sav.NewWriter(f, variables, sav.Options{
//	    FileLabel: "Energy Brand Tracker",
//	    Created:   anchor,
//	    CaseCount: len(rows),
//	})
//	if err != nil { ... }
//	for _, row := range rows {
//	    if err := w.WriteCase(row); err != nil { ... }
//	}
//	if err := w.Close(); err != nil { ... }
//
// Variable names longer than eight bytes are carried in the long-name
// extension record; unique truncated short names are generated
// automatically.
package sav
