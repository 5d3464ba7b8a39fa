// Package hprof decodes JVM heap dumps in the HPROF binary format.
//
// The decoder is lazy and zero-copy: a Dump borrows the caller's byte
// range (usually a memory-mapped file) and every view it produces holds
// sub-slices of that range. Nothing is parsed until asked for, so dumps
// far larger than memory can be walked record by record.
//
//	HProf binary format described here
//	https://github.com/openjdk/jdk/blob/master/src/hotspot/share/services/heapDumper.cpp
package hprof

import (
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

// Dump is an open HPROF file. The underlying bytes must outlive the Dump
// and every record, sub-record and field view derived from it.
type Dump struct {
	data   []byte
	header *HprofHeader
	m      mmap.MMap // non-nil when opened via OpenFile
	f      *os.File
}

// Open parses the header of an in-memory dump. The caller keeps ownership
// of data; views returned by the Dump alias it.
func Open(data []byte) (*Dump, error) {
	header, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	return &Dump{data: data, header: header}, nil
}

// OpenFile memory-maps path read-only and parses its header. Close
// unmaps the file; all views are invalid afterwards.
func OpenFile(path string) (*Dump, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open file: %w", err)
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("unable to map %s: %w", path, err)
	}

	d, err := Open(m)
	if err != nil {
		m.Unmap()
		f.Close()
		return nil, err
	}
	d.m = m
	d.f = f
	return d, nil
}

// Close unmaps the file if the Dump owns a mapping. For dumps opened
// with Open it is a no-op.
func (d *Dump) Close() error {
	var err error
	if d.m != nil {
		err = d.m.Unmap()
		d.m = nil
	}
	if d.f != nil {
		if cerr := d.f.Close(); err == nil {
			err = cerr
		}
		d.f = nil
	}
	return err
}

func (d *Dump) Header() *HprofHeader {
	return d.header
}

// Size returns the total file size in bytes.
func (d *Dump) Size() int {
	return len(d.data)
}

// Records returns a forward-only iterator over the top-level records,
// starting at the first record after the header.
func (d *Dump) Records() *RecordIterator {
	return &RecordIterator{
		r: NewReader(d.data[d.header.BodyOffset:], d.header.IdentifierSize),
	}
}
