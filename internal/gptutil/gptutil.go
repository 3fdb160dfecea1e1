// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package gptutil implements helper functions for GPT on-disk encoding.
package gptutil

// GUIDToUUID converts an on-disk GPT GUID (mixed-endian) to a standard
// big-endian UUID byte representation.
func GUIDToUUID(g []byte) []byte {
	return append(
		[]byte{
			g[3], g[2], g[1], g[0],
			g[5], g[4],
			g[7], g[6],
			g[8], g[9],
		},
		g[10:16]...,
	)
}

// UUIDToGUID converts a standard big-endian UUID byte representation to an
// on-disk GPT GUID (mixed-endian).
func UUIDToGUID(u []byte) []byte {
	return append(
		[]byte{
			u[3], u[2], u[1], u[0],
			u[5], u[4],
			u[7], u[6],
			u[8], u[9],
		},
		u[10:16]...,
	)
}
