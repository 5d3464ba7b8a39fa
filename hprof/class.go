package hprof

import "fmt"

/*
*	LoadClass parses a HPROF_LOAD_CLASS record:
*
*	u4      Class serial number
*	id      Class object ID
*	u4      Stack trace serial number
*	id      Class name ID (references UTF8)
 */

type LoadClassBody struct {
	ClassSerialNumber      SerialNum
	ObjectID               ID
	StackTraceSerialNumber SerialNum
	ClassNameID            ID // It is a pointer to a UTF8 string
}

func (rec *HprofRecord) LoadClass() (*LoadClassBody, error) {
	r := rec.reader()
	body := &LoadClassBody{}

	serial, err := r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read class serial number: %w", err)
	}
	body.ClassSerialNumber = SerialNum(serial)

	body.ObjectID, err = r.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read class object ID: %w", err)
	}

	stackSerial, err := r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read stack trace serial: %w", err)
	}
	body.StackTraceSerialNumber = SerialNum(stackSerial)

	body.ClassNameID, err = r.ReadID()
	if err != nil {
		return nil, fmt.Errorf("failed to read class name ID: %w", err)
	}

	return body, nil
}

/*
*	UnloadClass parses a HPROF_UNLOAD_CLASS record:
*
*	u4      Class serial number
 */

type UnloadClassBody struct {
	ClassSerialNumber SerialNum
}

func (rec *HprofRecord) UnloadClass() (*UnloadClassBody, error) {
	r := rec.reader()

	serial, err := r.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("failed to read class serial number: %w", err)
	}

	return &UnloadClassBody{ClassSerialNumber: SerialNum(serial)}, nil
}
