package model

import "time"

// CourseMetadata is the immutable course snapshot taken at registration.
type CourseMetadata struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	Semester string `json:"semester"`
}

// ItemType tags a course item on the portal.
type ItemType string

const (
	ItemTypeLecture    ItemType = "lecture"
	ItemTypeAssignment ItemType = "assignment"
	ItemTypePractice   ItemType = "practice"
	ItemTypeProject    ItemType = "project"
	ItemTypeExam       ItemType = "exam"
	ItemTypeOther      ItemType = "other"
)

// CourseItem is one entry inside a week on the portal. Items are scraped
// fresh every cycle and only fingerprinted by (username, url).
type CourseItem struct {
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Type        ItemType `json:"type"`
}

// Week groups course items under a start date.
type Week struct {
	StartDate time.Time    `json:"start_date"`
	Items     []CourseItem `json:"items"`
}
