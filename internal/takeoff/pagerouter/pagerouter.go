// Package pagerouter implements C3: a closed-form mapping from a domain
// name to the sorted, unique set of global page numbers relevant to it,
// read off a DocumentMap's subtypes and content tags.
package pagerouter

import (
	"sort"

	"github.com/abudker/takeoff24/internal/takeoff/model"
)

// Domain is the closed set of page-routing targets.
type Domain string

const (
	DomainOrientation Domain = "orientation"
	DomainZones       Domain = "zones"
	DomainWindows     Domain = "windows"
	DomainHVAC        Domain = "hvac"
	DomainDHW         Domain = "dhw"
	DomainProject     Domain = "project"
)

var domainSubtypes = map[Domain][]model.PageSubtype{
	DomainOrientation: {model.SubtypeSitePlan, model.SubtypeFloorPlan, model.SubtypeElevation},
	DomainZones: {
		model.SubtypeFloorPlan, model.SubtypeSection, model.SubtypeDetail,
		model.SubtypeEnergySummary, model.SubtypeRoomSched, model.SubtypeWallSched,
	},
	DomainWindows: {
		model.SubtypeWindowSched, model.SubtypeElevation, model.SubtypeFloorPlan,
		model.SubtypeEnergySummary,
	},
	DomainHVAC: {model.SubtypeEquipSched, model.SubtypeMechanicalPlan, model.SubtypeEnergySummary},
	DomainDHW:  {model.SubtypeEquipSched, model.SubtypePlumbingPlan, model.SubtypeEnergySummary},
}

var domainTags = map[Domain][]model.ContentTag{
	DomainOrientation: {model.TagNorthArrow},
	DomainZones: {
		model.TagRoomLabels, model.TagAreaCallouts, model.TagCeilingHeights,
		model.TagWallAssembly, model.TagInsulationValues,
	},
	DomainWindows: {model.TagGlazingPerformance, model.TagWindowCallouts},
	DomainHVAC:    {model.TagHVACEquipment, model.TagHVACSpecs},
	DomainDHW:     {model.TagWaterHeater, model.TagDHWSpecs},
}

// legacyCoarseTypes is the fallback for caches with no subtypes or tags:
// each domain maps to a set of coarse PageTypes only.
var legacyCoarseTypes = map[Domain][]model.PageType{
	DomainOrientation: {model.PageDrawing},
	DomainZones:       {model.PageDrawing, model.PageSchedule},
	DomainWindows:     {model.PageSchedule, model.PageDrawing},
	DomainHVAC:        {model.PageSchedule, model.PageCBECC},
	DomainDHW:         {model.PageSchedule, model.PageCBECC},
	DomainProject:     {model.PageSchedule, model.PageCBECC},
}

// PagesFor returns the sorted, deduplicated global page numbers relevant
// to domain, computed from doc. The `project` domain additionally takes
// the first three floor-plan pages and the site plan, per §4.3.
func PagesFor(doc model.DocumentMap, domain Domain) []int {
	if legacyDocumentMap(doc) {
		return legacyPagesFor(doc, domain)
	}

	if domain == DomainProject {
		return projectPages(doc)
	}

	subtypes := domainSubtypes[domain]
	tags := domainTags[domain]

	seen := make(map[int]bool)
	var pages []int
	for _, p := range doc.Pages {
		if matchesSubtype(p, subtypes) || matchesAnyTag(p, tags) {
			if !seen[p.PageNumber] {
				seen[p.PageNumber] = true
				pages = append(pages, p.PageNumber)
			}
		}
	}
	sort.Ints(pages)
	return pages
}

func matchesSubtype(p model.PageInfo, subtypes []model.PageSubtype) bool {
	if p.Subtype == nil {
		return false
	}
	for _, st := range subtypes {
		if *p.Subtype == st {
			return true
		}
	}
	return false
}

func matchesAnyTag(p model.PageInfo, tags []model.ContentTag) bool {
	for _, tag := range tags {
		if p.HasTag(tag) {
			return true
		}
	}
	return false
}

// projectPages unions schedules, CBECC pages, energy summaries, the site
// plan, and the first three floor plans.
func projectPages(doc model.DocumentMap) []int {
	seen := make(map[int]bool)
	var pages []int
	floorPlanCount := 0

	for _, p := range doc.Pages {
		include := p.Type == model.PageSchedule || p.Type == model.PageCBECC
		if p.Subtype != nil {
			switch *p.Subtype {
			case model.SubtypeEnergySummary, model.SubtypeSitePlan:
				include = true
			case model.SubtypeFloorPlan:
				if floorPlanCount < 3 {
					include = true
					floorPlanCount++
				}
			}
		}
		if include && !seen[p.PageNumber] {
			seen[p.PageNumber] = true
			pages = append(pages, p.PageNumber)
		}
	}
	sort.Ints(pages)
	return pages
}

// legacyDocumentMap reports whether doc carries no subtype or tag
// information at all, meaning only coarse types can route pages.
func legacyDocumentMap(doc model.DocumentMap) bool {
	for _, p := range doc.Pages {
		if p.Subtype != nil || len(p.Tags) > 0 {
			return false
		}
	}
	return true
}

func legacyPagesFor(doc model.DocumentMap, domain Domain) []int {
	types := legacyCoarseTypes[domain]
	seen := make(map[int]bool)
	var pages []int
	for _, p := range doc.Pages {
		for _, t := range types {
			if p.Type == t && !seen[p.PageNumber] {
				seen[p.PageNumber] = true
				pages = append(pages, p.PageNumber)
				break
			}
		}
	}
	sort.Ints(pages)
	return pages
}
