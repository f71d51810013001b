// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wast

import "unicode/utf8"

// isValidUTF8 reports whether s is valid UTF-8. The parser does not call
// it: module names and import/export strings are accepted unchecked.
func isValidUTF8(s string) bool {
	return utf8.ValidString(s)
}

// textToBytes concatenates a run of adjacent string literals, as the
// grammar allows for data and custom-section payloads, into one []byte.
func textToBytes(parts []string) []byte {
	n := 0
	for _, s := range parts {
		n += len(s)
	}
	out := make([]byte, 0, n)
	for _, s := range parts {
		out = append(out, s...)
	}
	return out
}
