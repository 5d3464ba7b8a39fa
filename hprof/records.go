package hprof

import (
	"fmt"
	"io"
)

/*
*	Each HPROF file is a header followed by a flat sequence of records:
*
*	u1      Record type tag
*	u4      Microseconds since the header timestamp
*	u4      Length of the body in bytes (excludes this 9-byte header)
*	[u1]*   Body
 */

// HprofRecord is one top-level record. Data aliases the dump's bytes;
// it is decoded on demand through the per-type accessors. Records with
// unrecognised tags carry their raw body and Type.Known() == false.
type HprofRecord struct {
	Type       HProfTagRecord
	TimeOffset uint32 // u4 - microseconds since header timestamp
	Length     uint32 // u4 - body length
	Data       []byte // borrowed body

	identifierSize uint32
}

// RecordIterator walks the top-level records in file order. It is
// forward-only and single-pass; construct a new one to restart.
type RecordIterator struct {
	r    *Reader
	done bool
}

// Next returns the next record. It returns io.EOF when the mapped range
// is exhausted. A record header whose declared body extends past the end
// of the range yields an ErrTruncated error, after which the iterator is
// terminated.
func (it *RecordIterator) Next() (*HprofRecord, error) {
	if it.done {
		return nil, io.EOF
	}
	if it.r.Remaining() == 0 {
		it.done = true
		return nil, io.EOF
	}

	tag, err := it.r.ReadU1()
	if err != nil {
		it.done = true
		return nil, fmt.Errorf("failed to read record type: %w", err)
	}

	timeOffset, err := it.r.ReadU4()
	if err != nil {
		it.done = true
		return nil, fmt.Errorf("failed to read time offset: %w", err)
	}

	length, err := it.r.ReadU4()
	if err != nil {
		it.done = true
		return nil, fmt.Errorf("failed to read record length: %w", err)
	}

	body, err := it.r.ReadNBytes(int(length))
	if err != nil {
		it.done = true
		return nil, fmt.Errorf("record %s declares %d byte body: %w",
			HProfTagRecord(tag), length, err)
	}

	return &HprofRecord{
		Type:           HProfTagRecord(tag),
		TimeOffset:     timeOffset,
		Length:         length,
		Data:           body,
		identifierSize: it.r.IdentifierSize(),
	}, nil
}

// reader returns a cursor over the record body.
func (rec *HprofRecord) reader() *Reader {
	return NewReader(rec.Data, rec.identifierSize)
}

// IdentifierSize returns the file-wide identifier width the record was
// decoded under.
func (rec *HprofRecord) IdentifierSize() uint32 {
	return rec.identifierSize
}
