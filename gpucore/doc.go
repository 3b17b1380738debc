// Package gpucore defines the backend-independent building blocks shared by
// the graphics package and every driver variant: the abstract color format
// enumeration and its native-format conversion table, mip-chain math, the
// shader declaration model produced by source parsers, uniform block layout
// rules, and the Driver capability interface that each backend implements.
//
// The conversion table and layout rules live here, in exactly one place, so
// that driver variants cannot drift apart on format or offset semantics.
package gpucore
