package hprof

import "fmt"

/*
*	StartThread parses a HPROF_START_THREAD record:
*
*	u4      Thread serial number
*	id      Thread object ID
*	u4      Stack trace serial number
*	id      Thread name ID (references UTF8)
*	id      Thread group name ID
*	id      Parent thread group name ID
 */

type StartThreadBody struct {
	ThreadSerialNumber      SerialNum
	ThreadObjectID          ID
	StackTraceSerialNumber  SerialNum
	ThreadNameID            ID // References UTF8
	ThreadGroupNameID       ID
	ParentThreadGroupNameID ID
}

func (rec *HprofRecord) StartThread() (*StartThreadBody, error) {
	r := rec.reader()
	body := &StartThreadBody{}

	serial, err := r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read thread serial number: %w", err)
	}
	body.ThreadSerialNumber = SerialNum(serial)

	body.ThreadObjectID, err = r.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read thread object ID: %w", err)
	}

	stackSerial, err := r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read stack trace serial: %w", err)
	}
	body.StackTraceSerialNumber = SerialNum(stackSerial)

	body.ThreadNameID, err = r.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read thread name ID: %w", err)
	}

	body.ThreadGroupNameID, err = r.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read thread group name ID: %w", err)
	}

	body.ParentThreadGroupNameID, err = r.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read parent thread group name ID: %w", err)
	}

	return body, nil
}

/*
*	EndThread parses a HPROF_END_THREAD record:
*
*	u4      Thread serial number
 */

type EndThreadBody struct {
	ThreadSerialNumber SerialNum
}

func (rec *HprofRecord) EndThread() (*EndThreadBody, error) {
	r := rec.reader()

	serial, err := r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read thread serial number: %w", err)
	}

	return &EndThreadBody{ThreadSerialNumber: SerialNum(serial)}, nil
}
