package hprof

import (
	"fmt"
	"time"
)

/*
*	ParseHeader parses the HPROF file header
*
*	"JAVA PROFILE 1.0.2\0"		Null-terminated format string
*	u4                    		Size of IDs (usually pointer size)
*	u8                    		Timestamp, ms since 1/1/70
 */

type HprofHeader struct {
	Format         string    // Typically "JAVA PROFILE 1.0.2"
	IdentifierSize uint32    // u4 size of object IDs, 4 or 8
	Timestamp      time.Time // dump creation time
	BodyOffset     int       // absolute offset of the first record
}

func ParseHeader(data []byte) (*HprofHeader, error) {
	r := NewReader(data, 0)

	format, err := r.ReadString()
	if err != nil {
		return nil, fmt.Errorf("unable to read format: %w", err)
	}

	identifierSize, err := r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read identifier size: %w", err)
	}
	if identifierSize != 4 && identifierSize != 8 {
		return nil, fmt.Errorf("identifier size %d: %w", identifierSize, ErrIDSize)
	}

	tsMilli, err := r.ReadU8()
	if err != nil {
		return nil, fmt.Errorf("failed to read timestamp: %w", err)
	}

	return &HprofHeader{
		Format:         format,
		IdentifierSize: identifierSize,
		Timestamp:      time.UnixMilli(int64(tsMilli)),
		BodyOffset:     r.Offset(),
	}, nil
}
