// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package constants

const (
	// ProfileLookupSubject is the NATS subject for jurisdiction profile lookups.
	ProfileLookupSubject = "aedwatch.profile.lookup"
)
