// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasm

import "github.com/willf/bitset"

// Feature identifies a named switch gating a subset of the opcode, type, or
// construct grammar. Feature flags are a closed set, so a bitset is a more
// natural fit than a map[string]bool: testing membership is a single Test
// call instead of a map probe, and a whole module's active set fits in one
// machine word.
type Feature uint

const (
	FeatureMVP Feature = iota
	FeatureMutableGlobals
	FeatureSaturatingFloatToInt
	FeatureSignExtension
	FeatureMultiValue
	FeatureReferenceTypes
	FeatureBulkMemory
	FeatureTailCall
	FeatureSIMD
	FeatureThreads
	FeatureExceptions
	FeatureFunctionReferences
	FeatureAnnotations
	FeatureMemory64

	featureCount
)

var featureNames = map[Feature]string{
	FeatureMVP:                  "mvp",
	FeatureMutableGlobals:       "mutable_globals",
	FeatureSaturatingFloatToInt: "saturating_float_to_int",
	FeatureSignExtension:        "sign_extension",
	FeatureMultiValue:           "multi_value",
	FeatureReferenceTypes:       "reference_types",
	FeatureBulkMemory:           "bulk_memory",
	FeatureTailCall:             "tail_call",
	FeatureSIMD:                 "simd",
	FeatureThreads:              "threads",
	FeatureExceptions:           "exceptions",
	FeatureFunctionReferences:   "function_references",
	FeatureAnnotations:          "annotations",
	FeatureMemory64:             "memory64",
}

func (f Feature) String() string {
	if name, ok := featureNames[f]; ok {
		return name
	}
	return "unknown"
}

// Features is the active feature set consulted by both readers before they
// accept an opcode, value type, or sugared construct that requires one.
type Features struct {
	bits bitset.BitSet
}

// DefaultFeatures returns the feature set enabled by default: the MVP core
// plus the extensions that have long since been merged into mainstream
// engines (mutable globals, sign extension, multi-value, saturating
// float-to-int conversions).
func DefaultFeatures() Features {
	var f Features
	f.Set(FeatureMVP)
	f.Set(FeatureMutableGlobals)
	f.Set(FeatureSignExtension)
	f.Set(FeatureMultiValue)
	f.Set(FeatureSaturatingFloatToInt)
	return f
}

// AllFeatures returns a set with every feature enabled.
func AllFeatures() Features {
	var f Features
	for i := Feature(0); i < featureCount; i++ {
		f.Set(i)
	}
	return f
}

// Set enables a feature.
func (f *Features) Set(feature Feature) {
	f.bits.Set(uint(feature))
}

// Clear disables a feature.
func (f *Features) Clear(feature Feature) {
	f.bits.Clear(uint(feature))
}

// Test reports whether a feature is enabled.
func (f Features) Test(feature Feature) bool {
	return f.bits.Test(uint(feature))
}

// TestAll reports whether every feature in required is enabled in f. An
// opcode declares the minimum feature set it requires; both readers call
// this before accepting one.
func (f Features) TestAll(required ...Feature) bool {
	for _, r := range required {
		if !f.Test(r) {
			return false
		}
	}
	return true
}

// IsSupersetOf reports whether every feature enabled in other is also
// enabled in f. Used to check the monotonicity property: a module accepted
// under feature set F must also be accepted under any F' that is a
// superset of F.
func (f Features) IsSupersetOf(other Features) bool {
	return f.bits.IsSuperSet(&other.bits)
}
