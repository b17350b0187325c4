// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package t240 provides the type descriptors of the alert records defined by
// the File Exchange Format for vital signs (FEF, module FEF-IntermediateDraft).
//
// The descriptors are plain [ber.Type] values and can be used with any of the
// functions of the ber package. [AlertCondition] offers a typed view of the
// generic [ber.Record] values of [AlertConditionType].
package t240

import (
	"math"

	"codello.dev/asn1rt"
	"codello.dev/asn1rt/ber"
)

// Basic integer and bit string types.
var (
	IntI64 = ber.NewInteger("INT-I64")
	IntU16 = ber.NewInteger("INT-U16").WithRange(0, math.MaxUint16)
	IntU32 = ber.NewInteger("INT-U32").WithRange(0, math.MaxUint32)
	Bits16 = ber.NewBitString("BITS-16").WithSize(16, 16)
)

// Alert types.
const (
	NoAlert        = 0
	LowPriTechAl   = 1
	MedPriTechAl   = 2
	HiPriTechAl    = 4
	LowPriPhysioAl = 256
	MedPriPhysioAl = 512
	HiPriPhysioAl  = 1024
)

var (
	HandleRef     = IntU16.Named("HandleRef")
	AlertControls = ber.NewBitString("AlertControls").WithSize(16, 16).WithNamedBits(map[int]string{
		0: "ac-obj-off",
		1: "ac-chan-off",
		3: "ac-all-obj-al-off",
		4: "ac-alert-off",
		5: "ac-alert-muted",
	})
	AlertFlags = ber.NewBitString("AlertFlags").WithSize(16, 16).WithNamedBits(map[int]string{
		1: "local-audible",
		2: "remote-audible",
		3: "visual-latching",
		4: "audible-latching",
		6: "derived",
		8: "record-inhibit",
	})
	MetricsCode = IntU16.Named("MetricsCode")
	AlertCode   = IntU16.Named("AlertCode")
	// AlertType is an INT-U16 restricted to the named alert types.
	AlertType = ber.NewEnumerated("AlertType", map[int64]string{
		NoAlert:        "no-alert",
		LowPriTechAl:   "low-pri-t-al",
		MedPriTechAl:   "med-pri-t-al",
		HiPriTechAl:    "hi-pri-t-al",
		LowPriPhysioAl: "low-pri-p-al",
		MedPriPhysioAl: "med-pri-p-al",
		HiPriPhysioAl:  "hi-pri-p-al",
	}).WithTag(asn1rt.Universal(asn1rt.TagInteger))
	PrivateCode = IntU32.Named("PrivateCode")
)

// AlertConditionType describes the AlertCondition record.
var AlertConditionType = ber.NewSequence("AlertCondition",
	ber.Field{Name: "objreference", Type: HandleRef, Tag: asn1rt.Context(1)},
	ber.Field{Name: "controls", Type: AlertControls, Tag: asn1rt.Context(2)},
	ber.Field{Name: "alertflags", Type: AlertFlags, Tag: asn1rt.Context(3)},
	ber.Field{Name: "alertsource", Type: MetricsCode, Tag: asn1rt.Context(4)},
	ber.Field{Name: "alertcode", Type: AlertCode, Tag: asn1rt.Context(5)},
	ber.Field{Name: "alerttype", Type: AlertType, Tag: asn1rt.Context(6)},
	ber.Field{Name: "alertinfoid", Type: PrivateCode, Tag: asn1rt.Context(7), Optional: true},
)

// Types contains all types of this package.
var Types = ber.MustRegistry(
	IntI64, IntU16, IntU32, Bits16,
	HandleRef, AlertControls, AlertFlags, MetricsCode, AlertCode, AlertType, PrivateCode,
	AlertConditionType,
)
