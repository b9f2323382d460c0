// Package taxonomy holds the closed status enumerations and their display
// metadata. Every place a status is rendered (JSON responses, map-marker
// tinting, chart segments) reads from the tables here; color literals are
// not duplicated elsewhere.
package taxonomy

import (
	"github.com/CleanAfricaNow/civic-service/internal/util/logger"
)

// Info is the presentation metadata attached to an enum value.
type Info struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// Unknown is the neutral presentation used for unrecognized values.
var Unknown = Info{Label: "Unknown", Color: "#9ca3af"}

// strict controls how lookups treat unrecognized values: in strict
// (development) mode the miss is logged at error level; in production it is
// silent. Either way the caller gets the neutral Info rather than a panic.
var strict = false

// SetStrict switches miss reporting on or off. Called once at boot from the
// environment config.
func SetStrict(v bool) { strict = v }

func lookup[K ~string](table map[K]Info, v K, taxonomyName string) Info {
	if info, ok := table[v]; ok {
		return info
	}
	if strict {
		logger.Errorf("taxonomy: unknown %s value %q", taxonomyName, string(v))
	}
	return Unknown
}

// ReportCategory is one of the 17 pollution/waste sub-types.
type ReportCategory string

const (
	CategoryIllegalDumping     ReportCategory = "illegal_dumping"
	CategoryOverflowingBin     ReportCategory = "overflowing_bin"
	CategoryLitter             ReportCategory = "litter"
	CategoryPlasticWaste       ReportCategory = "plastic_waste"
	CategoryOrganicWaste       ReportCategory = "organic_waste"
	CategoryConstructionDebris ReportCategory = "construction_debris"
	CategoryHazardousWaste     ReportCategory = "hazardous_waste"
	CategoryMedicalWaste       ReportCategory = "medical_waste"
	CategoryElectronicWaste    ReportCategory = "electronic_waste"
	CategoryWaterPollution     ReportCategory = "water_pollution"
	CategoryAirPollution       ReportCategory = "air_pollution"
	CategorySewageLeak         ReportCategory = "sewage_leak"
	CategoryOilSpill           ReportCategory = "oil_spill"
	CategoryNoisePollution     ReportCategory = "noise_pollution"
	CategoryBurningWaste       ReportCategory = "burning_waste"
	CategoryDeadAnimal         ReportCategory = "dead_animal"
	CategoryOther              ReportCategory = "other"
)

var reportCategories = map[ReportCategory]Info{
	CategoryIllegalDumping:     {Label: "Illegal dumping", Color: "#b91c1c"},
	CategoryOverflowingBin:     {Label: "Overflowing bin", Color: "#ea580c"},
	CategoryLitter:             {Label: "Litter", Color: "#f59e0b"},
	CategoryPlasticWaste:       {Label: "Plastic waste", Color: "#0ea5e9"},
	CategoryOrganicWaste:       {Label: "Organic waste", Color: "#65a30d"},
	CategoryConstructionDebris: {Label: "Construction debris", Color: "#78716c"},
	CategoryHazardousWaste:     {Label: "Hazardous waste", Color: "#dc2626"},
	CategoryMedicalWaste:       {Label: "Medical waste", Color: "#e11d48"},
	CategoryElectronicWaste:    {Label: "Electronic waste", Color: "#7c3aed"},
	CategoryWaterPollution:     {Label: "Water pollution", Color: "#2563eb"},
	CategoryAirPollution:       {Label: "Air pollution", Color: "#64748b"},
	CategorySewageLeak:         {Label: "Sewage leak", Color: "#92400e"},
	CategoryOilSpill:           {Label: "Oil spill", Color: "#1e293b"},
	CategoryNoisePollution:     {Label: "Noise pollution", Color: "#a855f7"},
	CategoryBurningWaste:       {Label: "Burning waste", Color: "#f97316"},
	CategoryDeadAnimal:         {Label: "Dead animal", Color: "#6b7280"},
	CategoryOther:              {Label: "Other", Color: "#9ca3af"},
}

// AllReportCategories lists every report category.
func AllReportCategories() []ReportCategory {
	return []ReportCategory{
		CategoryIllegalDumping, CategoryOverflowingBin, CategoryLitter,
		CategoryPlasticWaste, CategoryOrganicWaste, CategoryConstructionDebris,
		CategoryHazardousWaste, CategoryMedicalWaste, CategoryElectronicWaste,
		CategoryWaterPollution, CategoryAirPollution, CategorySewageLeak,
		CategoryOilSpill, CategoryNoisePollution, CategoryBurningWaste,
		CategoryDeadAnimal, CategoryOther,
	}
}

func (c ReportCategory) Valid() bool { _, ok := reportCategories[c]; return ok }
func (c ReportCategory) Info() Info  { return lookup(reportCategories, c, "report category") }

// ReportStatus is the lifecycle state of a report. Transitions are not
// validated: any authorized writer may set any value in any order.
type ReportStatus string

const (
	ReportPending    ReportStatus = "pending"
	ReportAssigned   ReportStatus = "assigned"
	ReportInProgress ReportStatus = "in_progress"
	ReportResolved   ReportStatus = "resolved"
	ReportRejected   ReportStatus = "rejected"
	ReportVerified   ReportStatus = "verified"
)

var reportStatuses = map[ReportStatus]Info{
	ReportPending:    {Label: "Pending", Color: "#f59e0b"},
	ReportAssigned:   {Label: "Assigned", Color: "#3b82f6"},
	ReportInProgress: {Label: "In progress", Color: "#6366f1"},
	ReportResolved:   {Label: "Resolved", Color: "#22c55e"},
	ReportRejected:   {Label: "Rejected", Color: "#ef4444"},
	ReportVerified:   {Label: "Verified", Color: "#15803d"},
}

// AllReportStatuses lists every report status.
func AllReportStatuses() []ReportStatus {
	return []ReportStatus{
		ReportPending, ReportAssigned, ReportInProgress,
		ReportResolved, ReportRejected, ReportVerified,
	}
}

func (s ReportStatus) Valid() bool { _, ok := reportStatuses[s]; return ok }
func (s ReportStatus) Info() Info  { return lookup(reportStatuses, s, "report status") }

// ReportPriority orders triage urgency.
type ReportPriority string

const (
	PriorityLow      ReportPriority = "low"
	PriorityMedium   ReportPriority = "medium"
	PriorityHigh     ReportPriority = "high"
	PriorityCritical ReportPriority = "critical"
)

var reportPriorities = map[ReportPriority]Info{
	PriorityLow:      {Label: "Low", Color: "#22c55e"},
	PriorityMedium:   {Label: "Medium", Color: "#f59e0b"},
	PriorityHigh:     {Label: "High", Color: "#ea580c"},
	PriorityCritical: {Label: "Critical", Color: "#dc2626"},
}

// AllReportPriorities lists every priority.
func AllReportPriorities() []ReportPriority {
	return []ReportPriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}
}

func (p ReportPriority) Valid() bool { _, ok := reportPriorities[p]; return ok }
func (p ReportPriority) Info() Info  { return lookup(reportPriorities, p, "report priority") }

// BinStatus is the observed fill/condition state of a waste bin. The same
// table drives marker tinting on the map and pie-chart segmentation.
type BinStatus string

const (
	BinEmpty       BinStatus = "empty"
	BinHalfFull    BinStatus = "half_full"
	BinAlmostFull  BinStatus = "almost_full"
	BinFull        BinStatus = "full"
	BinOverflowing BinStatus = "overflowing"
	BinDamaged     BinStatus = "damaged"
	BinMissing     BinStatus = "missing"
)

var binStatuses = map[BinStatus]Info{
	BinEmpty:       {Label: "Empty", Color: "#22c55e"},
	BinHalfFull:    {Label: "Half full", Color: "#84cc16"},
	BinAlmostFull:  {Label: "Almost full", Color: "#f59e0b"},
	BinFull:        {Label: "Full", Color: "#ea580c"},
	BinOverflowing: {Label: "Overflowing", Color: "#dc2626"},
	BinDamaged:     {Label: "Damaged", Color: "#7c3aed"},
	BinMissing:     {Label: "Missing", Color: "#64748b"},
}

// AllBinStatuses lists every bin status.
func AllBinStatuses() []BinStatus {
	return []BinStatus{
		BinEmpty, BinHalfFull, BinAlmostFull, BinFull,
		BinOverflowing, BinDamaged, BinMissing,
	}
}

func (s BinStatus) Valid() bool { _, ok := binStatuses[s]; return ok }
func (s BinStatus) Info() Info  { return lookup(binStatuses, s, "bin status") }

// NeedsAttention reports whether the status should pull a collection crew:
// full, overflowing, damaged or missing.
func (s BinStatus) NeedsAttention() bool {
	switch s {
	case BinFull, BinOverflowing, BinDamaged, BinMissing:
		return true
	}
	return false
}

// SiteStatus is the operational state of a discharge site or organization
// facility.
type SiteStatus string

const (
	SiteActive      SiteStatus = "active"
	SiteSaturated   SiteStatus = "saturated"
	SiteMaintenance SiteStatus = "maintenance"
	SiteClosed      SiteStatus = "closed"
)

var siteStatuses = map[SiteStatus]Info{
	SiteActive:      {Label: "Active", Color: "#22c55e"},
	SiteSaturated:   {Label: "Saturated", Color: "#ea580c"},
	SiteMaintenance: {Label: "Under maintenance", Color: "#f59e0b"},
	SiteClosed:      {Label: "Closed", Color: "#64748b"},
}

// AllSiteStatuses lists every site status.
func AllSiteStatuses() []SiteStatus {
	return []SiteStatus{SiteActive, SiteSaturated, SiteMaintenance, SiteClosed}
}

func (s SiteStatus) Valid() bool { _, ok := siteStatuses[s]; return ok }
func (s SiteStatus) Info() Info  { return lookup(siteStatuses, s, "site status") }

// CenterStatus is the operational state of a sorting center.
type CenterStatus string

const (
	CenterOperational CenterStatus = "operational"
	CenterReduced     CenterStatus = "reduced"
	CenterMaintenance CenterStatus = "maintenance"
	CenterClosed      CenterStatus = "closed"
)

var centerStatuses = map[CenterStatus]Info{
	CenterOperational: {Label: "Operational", Color: "#22c55e"},
	CenterReduced:     {Label: "Reduced capacity", Color: "#f59e0b"},
	CenterMaintenance: {Label: "Under maintenance", Color: "#ea580c"},
	CenterClosed:      {Label: "Closed", Color: "#64748b"},
}

// AllCenterStatuses lists every center status.
func AllCenterStatuses() []CenterStatus {
	return []CenterStatus{CenterOperational, CenterReduced, CenterMaintenance, CenterClosed}
}

func (s CenterStatus) Valid() bool { _, ok := centerStatuses[s]; return ok }
func (s CenterStatus) Info() Info  { return lookup(centerStatuses, s, "center status") }

// RequestStatus is the lifecycle state of a registration request.
type RequestStatus string

const (
	RequestPending     RequestStatus = "pending"
	RequestUnderReview RequestStatus = "under_review"
	RequestApproved    RequestStatus = "approved"
	RequestRejected    RequestStatus = "rejected"
)

var requestStatuses = map[RequestStatus]Info{
	RequestPending:     {Label: "Pending", Color: "#f59e0b"},
	RequestUnderReview: {Label: "Under review", Color: "#3b82f6"},
	RequestApproved:    {Label: "Approved", Color: "#22c55e"},
	RequestRejected:    {Label: "Rejected", Color: "#ef4444"},
}

// AllRequestStatuses lists every registration request status.
func AllRequestStatuses() []RequestStatus {
	return []RequestStatus{RequestPending, RequestUnderReview, RequestApproved, RequestRejected}
}

func (s RequestStatus) Valid() bool { _, ok := requestStatuses[s]; return ok }
func (s RequestStatus) Info() Info  { return lookup(requestStatuses, s, "request status") }

// Terminal reports whether the request can no longer change.
func (s RequestStatus) Terminal() bool {
	return s == RequestApproved || s == RequestRejected
}
