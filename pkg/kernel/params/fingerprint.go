// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package params

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// fingerprintNamespace is the UUID namespace of params fingerprints.
var fingerprintNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/gomlx/kernelselector/params"))

// Fingerprint returns a deterministic identifier of p: two Params describing the same operation
// instance on the same device have the same fingerprint.
//
// It is a name-based (SHA-1, version 5) UUID of a canonical text encoding of p.
func Fingerprint(p *Params) uuid.UUID {
	return uuid.NewSHA1(fingerprintNamespace, []byte(canonicalEncoding(p)))
}

func canonicalEncoding(p *Params) string {
	var sb strings.Builder
	w := func(format string, args ...any) { _, _ = fmt.Fprintf(&sb, format, args...) }
	w("kind=%d;", p.Kind)
	for ii, input := range p.Inputs {
		w("in%d=%s pad=%v/%v;", ii, input, input.PadBefore, input.PadAfter)
	}
	w("out=%s pad=%v/%v;", p.Output, p.Output.PadBefore, p.Output.PadAfter)
	w("attrs=%T%+v;", p.Attributes, p.Attributes)
	for ii, op := range p.FusedOps {
		w("fused%d=%#v;", ii, op)
	}
	w("device=%#v;", p.Device)
	return sb.String()
}
