// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package t240

import (
	"errors"
	"fmt"

	"codello.dev/asn1rt"
	"codello.dev/asn1rt/ber"
)

var errNotAlertCondition = errors.New("t240: not an AlertCondition record")

// AlertCondition is the typed representation of an AlertCondition record.
type AlertCondition struct {
	ObjReference uint16
	Controls     asn1rt.BitString
	AlertFlags   asn1rt.BitString
	AlertSource  uint16
	AlertCode    uint16
	AlertType    uint16
	AlertInfoID  asn1rt.Optional[uint32]
}

// Record converts a into a record of [AlertConditionType].
func (a AlertCondition) Record() *ber.Record {
	r := ber.NewRecord(AlertConditionType).
		Set("objreference", a.ObjReference).
		Set("controls", a.Controls).
		Set("alertflags", a.AlertFlags).
		Set("alertsource", a.AlertSource).
		Set("alertcode", a.AlertCode).
		Set("alerttype", a.AlertType)
	if id, ok := a.AlertInfoID.Get(); ok {
		r.Set("alertinfoid", id)
	}
	return r
}

// FromRecord converts a record of [AlertConditionType] into an AlertCondition.
// The record must satisfy the constraints of AlertConditionType.
func FromRecord(r *ber.Record) (AlertCondition, error) {
	var a AlertCondition
	if r == nil || r.Type != AlertConditionType {
		return a, errNotAlertCondition
	}
	if err := AlertConditionType.CheckConstraints(r); err != nil {
		return a, err
	}
	a.ObjReference = uint16(intField(r, "objreference"))
	a.Controls = bitsField(r, "controls")
	a.AlertFlags = bitsField(r, "alertflags")
	a.AlertSource = uint16(intField(r, "alertsource"))
	a.AlertCode = uint16(intField(r, "alertcode"))
	a.AlertType = uint16(intField(r, "alerttype"))
	if r.Has("alertinfoid") {
		a.AlertInfoID = asn1rt.Some(uint32(intField(r, "alertinfoid")))
	}
	return a, nil
}

// intField returns the value of an integer field that has passed constraint
// checks.
func intField(r *ber.Record, name string) int64 {
	v, _ := r.Get(name)
	switch i := v.(type) {
	case int64:
		return i
	case uint16:
		return int64(i)
	case uint32:
		return int64(i)
	}
	panic(fmt.Sprintf("t240: unexpected value of type %T for %s", v, name))
}

func bitsField(r *ber.Record, name string) asn1rt.BitString {
	v, _ := r.Get(name)
	return v.(asn1rt.BitString)
}

// MarshalDER returns the DER encoding of a.
func (a AlertCondition) MarshalDER() ([]byte, error) {
	return ber.Marshal(AlertConditionType, a.Record(), &ber.Options{Rules: ber.DER})
}

// UnmarshalAlertCondition decodes a single BER or DER encoded AlertCondition
// from b.
func UnmarshalAlertCondition(b []byte, opts *ber.Options) (AlertCondition, error) {
	v, err := ber.Unmarshal(AlertConditionType, b, opts)
	if err != nil {
		return AlertCondition{}, err
	}
	var tr *ber.Tracker
	if opts != nil {
		tr = opts.Tracker
	}
	defer AlertConditionType.Free(v, tr)
	return FromRecord(v.(*ber.Record))
}

// String returns the diagnostic representation of a.
func (a AlertCondition) String() string {
	return AlertConditionType.Print(a.Record())
}
