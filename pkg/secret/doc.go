// Package secret provides a growable buffer for passwords that never lives on the Go heap.
//
// The backing memory is an anonymous mmap region that is locked into RAM (mlock) and excluded
// from core dumps (MADV_DONTDUMP). Reset and Close overwrite the contents with zeros.
package secret
