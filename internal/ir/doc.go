// Package ir provides the nested output value model produced by encoding.
//
// This package contains value types and their serializations only. It
// imports nothing internal, so every other package may depend on it.
//
// Key design constraints:
//   - NO float types anywhere; rates are carried as Decimal text
//   - Object keys serialize in RFC 8785 order so output is byte-stable
//   - Strings are NFC normalized at the serialization boundary
package ir
