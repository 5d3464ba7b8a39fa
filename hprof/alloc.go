package hprof

import (
	"encoding/binary"
	"fmt"
)

/*
*	AllocSites parses a HPROF_ALLOC_SITES record:
*
*	u2      Flags (see ALLOC_* bits)
*	u4      Cutoff ratio
*	u4      Total live bytes
*	u4      Total live instances
*	u8      Total bytes allocated
*	u8      Total instances allocated
*	u4      Number of sites
*	[site]* Allocation sites, 25 bytes each
*
*	Site format:
*	u1      Array indicator (0: normal object, else element type)
*	u4      Class serial number
*	u4      Stack trace serial number
*	u4      Bytes alive
*	u4      Instances alive
*	u4      Bytes allocated
*	u4      Instances allocated
 */

const allocSiteSize = 25

type AllocSite struct {
	IsArray                uint8
	ClassSerialNumber      SerialNum
	StackTraceSerialNumber SerialNum
	BytesAlive             uint32
	InstancesAlive         uint32
	BytesAlloc             uint32
	InstancesAlloc         uint32
}

type AllocSitesBody struct {
	Flags               uint16
	CutoffRatio         uint32
	TotalLiveBytes      uint32
	TotalLiveInstances  uint32
	TotalBytesAlloc     uint64
	TotalInstancesAlloc uint64
	NumSites            uint32
	sites               []byte // borrowed site array
}

func (b *AllocSitesBody) IsIncremental() bool {
	return (b.Flags & ALLOC_TYPE) != 0
}

func (b *AllocSitesBody) IsSortedByAllocation() bool {
	return (b.Flags & ALLOC_SORT) != 0
}

func (b *AllocSitesBody) ForcedGC() bool {
	return (b.Flags & ALLOC_GC) != 0
}

// Site decodes the i-th allocation site, validating the index against
// the bytes actually present in the record body.
func (b *AllocSitesBody) Site(i int) (AllocSite, error) {
	off := i * allocSiteSize
	if i < 0 || off+allocSiteSize > len(b.sites) {
		return AllocSite{}, fmt.Errorf("alloc site %d of %d: %w", i, b.NumSites, ErrLength)
	}
	s := b.sites[off : off+allocSiteSize]
	return AllocSite{
		IsArray:                s[0],
		ClassSerialNumber:      SerialNum(binary.BigEndian.Uint32(s[1:])),
		StackTraceSerialNumber: SerialNum(binary.BigEndian.Uint32(s[5:])),
		BytesAlive:             binary.BigEndian.Uint32(s[9:]),
		InstancesAlive:         binary.BigEndian.Uint32(s[13:]),
		BytesAlloc:             binary.BigEndian.Uint32(s[17:]),
		InstancesAlloc:         binary.BigEndian.Uint32(s[21:]),
	}, nil
}

func (rec *HprofRecord) AllocSites() (*AllocSitesBody, error) {
	r := rec.reader()
	body := &AllocSitesBody{}
	var err error

	body.Flags, err = r.ReadU2()
	if err != nil {
		return nil, fmt.Errorf("failed to read flags: %w", err)
	}

	body.CutoffRatio, err = r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read cutoff ratio: %w", err)
	}

	body.TotalLiveBytes, err = r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read total live bytes: %w", err)
	}

	body.TotalLiveInstances, err = r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read total live instances: %w", err)
	}

	body.TotalBytesAlloc, err = r.ReadU8()
	if err != nil {
		return nil, fmt.Errorf("failed to read total bytes allocated: %w", err)
	}

	body.TotalInstancesAlloc, err = r.ReadU8()
	if err != nil {
		return nil, fmt.Errorf("failed to read total instances allocated: %w", err)
	}

	body.NumSites, err = r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read number of sites: %w", err)
	}

	body.sites = rec.Data[r.Offset():]
	return body, nil
}

/*
*	HeapSummary parses a HPROF_HEAP_SUMMARY record:
*
*	u4      Total live bytes
*	u4      Total live instances
*	u8      Total bytes allocated
*	u8      Total instances allocated
 */

type HeapSummary struct {
	LiveBytes      uint32
	LiveInstances  uint32
	BytesAlloc     uint64
	InstancesAlloc uint64
}

func (rec *HprofRecord) HeapSummary() (*HeapSummary, error) {
	r := rec.reader()
	body := &HeapSummary{}
	var err error

	body.LiveBytes, err = r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read live bytes: %w", err)
	}

	body.LiveInstances, err = r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read live instances: %w", err)
	}

	body.BytesAlloc, err = r.ReadU8()
	if err != nil {
		return nil, fmt.Errorf("failed to read bytes allocated: %w", err)
	}

	body.InstancesAlloc, err = r.ReadU8()
	if err != nil {
		return nil, fmt.Errorf("failed to read instances allocated: %w", err)
	}

	return body, nil
}

/*
*	CPUSamples parses a HPROF_CPU_SAMPLES record:
*
*	u4      Total number of samples
*	u4      Number of traces
*	[trace]* Traces, 8 bytes each:
*	u4      Number of samples at this trace
*	u4      Stack trace serial number
 */

const cpuTraceSize = 8

type CPUTraceInfo struct {
	NumSamples             uint32
	StackTraceSerialNumber SerialNum
}

type CPUSamplesBody struct {
	TotalSamples uint32
	NumTraces    uint32
	traces       []byte // borrowed trace array
}

// Trace decodes the i-th sampled trace, validating the index against the
// bytes actually present in the record body.
func (b *CPUSamplesBody) Trace(i int) (CPUTraceInfo, error) {
	off := i * cpuTraceSize
	if i < 0 || off+cpuTraceSize > len(b.traces) {
		return CPUTraceInfo{}, fmt.Errorf("cpu trace %d of %d: %w", i, b.NumTraces, ErrLength)
	}
	t := b.traces[off : off+cpuTraceSize]
	return CPUTraceInfo{
		NumSamples:             binary.BigEndian.Uint32(t),
		StackTraceSerialNumber: SerialNum(binary.BigEndian.Uint32(t[4:])),
	}, nil
}

func (rec *HprofRecord) CPUSamples() (*CPUSamplesBody, error) {
	r := rec.reader()
	body := &CPUSamplesBody{}
	var err error

	body.TotalSamples, err = r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read total samples: %w", err)
	}

	body.NumTraces, err = r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read number of traces: %w", err)
	}

	body.traces = rec.Data[r.Offset():]
	return body, nil
}
