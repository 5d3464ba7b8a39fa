package hprof

import "fmt"

/*
*	UTF8 parses a HPROF_UTF8 record:
*
*	id      String ID
*	[u1]*   UTF-8 bytes, length implied by the record length
*
*	The bytes are not validated; JVMs emit modified UTF-8 and the odd
*	truncated sequence, so interpretation is left to the caller.
 */

type UTF8Body struct {
	StringID ID
	Bytes    []byte // borrowed, unvalidated UTF-8
}

func (b *UTF8Body) Text() string {
	return string(b.Bytes)
}

// UTF8 decodes the record as a HPROF_UTF8 body.
func (rec *HprofRecord) UTF8() (*UTF8Body, error) {
	r := rec.reader()

	stringID, err := r.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read string ID: %w", err)
	}

	return &UTF8Body{
		StringID: stringID,
		Bytes:    rec.Data[r.Offset():],
	}, nil
}
