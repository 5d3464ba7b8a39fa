package hprof

import "fmt"

/*
*	ControlSettings parses a HPROF_CONTROL_SETTINGS record:
*
*	u4      Bit flags (see CONTROL_* bits)
*	u2      Stack trace depth
 */

type ControlSettings struct {
	Flags           uint32
	StackTraceDepth uint16
}

func (cs *ControlSettings) IsAllocTracesEnabled() bool {
	return (cs.Flags & CONTROL_ALLOC_TRACES) != 0
}

func (cs *ControlSettings) IsCPUSamplingEnabled() bool {
	return (cs.Flags & CONTROL_CPU_SAMPLING) != 0
}

func (rec *HprofRecord) ControlSettings() (*ControlSettings, error) {
	r := rec.reader()
	body := &ControlSettings{}
	var err error

	body.Flags, err = r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read flags: %w", err)
	}

	body.StackTraceDepth, err = r.ReadU2()
	if err != nil {
		return nil, fmt.Errorf("failed to read stack trace depth: %w", err)
	}

	return body, nil
}
