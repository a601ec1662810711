package models

import "strings"

type CategoryKind int

const (
	CategoryOther CategoryKind = iota
	CategoryShipped
	CategoryCompleted
)

// Status titles the CRM uses for the two categories with special date rules.
const (
	StatusTitleShipped   = "Відправлено"
	StatusTitleCompleted = "Виконано"
	StatusTitleAll       = "Всі"
)

// StatusCategory is a report filter decided once from user input.
// For CategoryOther, Raw is the status text to match; empty Raw means all orders.
type StatusCategory struct {
	Kind CategoryKind
	Raw  string
}

func Shipped() StatusCategory   { return StatusCategory{Kind: CategoryShipped, Raw: StatusTitleShipped} }
func Completed() StatusCategory { return StatusCategory{Kind: CategoryCompleted, Raw: StatusTitleCompleted} }
func AllStatuses() StatusCategory {
	return StatusCategory{Kind: CategoryOther}
}

func ParseStatusFilter(s string) StatusCategory {
	s = strings.TrimSpace(s)
	low := strings.ToLower(s)
	switch {
	case low == "" || low == strings.ToLower(StatusTitleAll) || low == "all":
		return AllStatuses()
	case strings.Contains(low, strings.ToLower(StatusTitleShipped)):
		return StatusCategory{Kind: CategoryShipped, Raw: s}
	case strings.Contains(low, strings.ToLower(StatusTitleCompleted)):
		return StatusCategory{Kind: CategoryCompleted, Raw: s}
	default:
		return StatusCategory{Kind: CategoryOther, Raw: s}
	}
}

func (c StatusCategory) IsAll() bool {
	return c.Kind == CategoryOther && c.Raw == ""
}

func (c StatusCategory) Label() string {
	if c.IsAll() {
		return StatusTitleAll
	}
	return c.Raw
}

// TitleIndicatesCompleted reports whether a live CRM status title means the deal is closed.
func TitleIndicatesCompleted(title string) bool {
	return strings.Contains(strings.ToLower(title), strings.ToLower(StatusTitleCompleted))
}
