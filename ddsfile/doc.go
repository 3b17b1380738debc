// Package ddsfile decodes the DDS texture container: the magic word, the
// 124 byte header, the optional DX10 extension, and legacy pixel format
// disambiguation, producing the image records the graphics package builds
// textures from.
//
// Decoding does not copy pixel data; records alias the input buffer, so
// depth slices of one volume level stay contiguous the way the consumer
// requires.
package ddsfile
