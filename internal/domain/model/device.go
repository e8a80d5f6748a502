// Copyright The AEDWatch Authors.
// SPDX-License-Identifier: MIT

package model

import "time"

// Device is one registered public defibrillator.
type Device struct {
	// ID is the national device registration number.
	ID string

	// InstallLocation is the human-readable placement, e.g. "시청 1층 로비".
	InstallLocation string

	// Address is the street address of the installation.
	Address string

	// RegionCode and CityCode identify the managing jurisdiction.
	RegionCode string
	CityCode   string

	// Category hierarchy of the installation site (e.g. 공공기관 > 청사 > 민원실).
	Category1 string
	Category2 string
	Category3 string

	// ManagingAgency is the organization responsible for upkeep.
	ManagingAgency string

	// Consumable and inspection dates; nil when not on record.
	BatteryExpiryDate  *time.Time
	PadExpiryDate      *time.Time
	ReplacementDate    *time.Time
	LastInspectionDate *time.Time
}
