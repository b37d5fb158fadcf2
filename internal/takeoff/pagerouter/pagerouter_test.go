package pagerouter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abudker/takeoff24/internal/takeoff/model"
)

func subtypePtr(s model.PageSubtype) *model.PageSubtype { return &s }

func TestPagesFor_Orientation_IncludesNorthArrowTaggedPage(t *testing.T) {
	doc := model.DocumentMap{
		TotalPages: 3,
		Pages: []model.PageInfo{
			{PageNumber: 1, Type: model.PageDrawing, Subtype: subtypePtr(model.SubtypeSitePlan)},
			{PageNumber: 2, Type: model.PageDrawing, Tags: []model.ContentTag{model.TagNorthArrow}},
			{PageNumber: 3, Type: model.PageOther},
		},
	}
	pages := PagesFor(doc, DomainOrientation)
	assert.Equal(t, []int{1, 2}, pages)
}

func TestPagesFor_Project_LimitsToFirstThreeFloorPlans(t *testing.T) {
	doc := model.DocumentMap{TotalPages: 5}
	for i := 1; i <= 5; i++ {
		doc.Pages = append(doc.Pages, model.PageInfo{
			PageNumber: i, Type: model.PageDrawing, Subtype: subtypePtr(model.SubtypeFloorPlan),
		})
	}
	pages := PagesFor(doc, DomainProject)
	assert.Equal(t, []int{1, 2, 3}, pages)
}

func TestPagesFor_LegacyCacheFallback(t *testing.T) {
	doc := model.DocumentMap{
		TotalPages: 4,
		Pages: []model.PageInfo{
			{PageNumber: 1, Type: model.PageSchedule},
			{PageNumber: 2, Type: model.PageCBECC},
			{PageNumber: 3, Type: model.PageDrawing},
			{PageNumber: 4, Type: model.PageOther},
		},
	}
	pages := PagesFor(doc, DomainHVAC)
	assert.Equal(t, []int{1, 2}, pages)
}

func TestPagesFor_NoDuplicatesWhenSubtypeAndTagBothMatch(t *testing.T) {
	doc := model.DocumentMap{
		TotalPages: 1,
		Pages: []model.PageInfo{
			{
				PageNumber: 1,
				Type:       model.PageDrawing,
				Subtype:    subtypePtr(model.SubtypeFloorPlan),
				Tags:       []model.ContentTag{model.TagRoomLabels},
			},
		},
	}
	pages := PagesFor(doc, DomainZones)
	assert.Equal(t, []int{1}, pages)
}
