package models

import (
	"time"

	id "leasekeeper/pkg/domain"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Filter narrows a notification listing. CreatedFrom and CreatedTo are inclusive.
type Filter struct {
	Status      *Status
	Type        *Type
	LeaseID     *id.LeaseID
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        int
	PageSize    int
}

func (f *Filter) Normalize() {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
}

func (f *Filter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

func (f *Filter) Matches(n *Notification) bool {
	if f.Status != nil && n.Status != *f.Status {
		return false
	}
	if f.Type != nil && n.Type != *f.Type {
		return false
	}
	if f.LeaseID != nil && n.LeaseID != *f.LeaseID {
		return false
	}
	if f.CreatedFrom != nil && n.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && n.CreatedAt.After(*f.CreatedTo) {
		return false
	}
	return true
}

type Page struct {
	Items      []*Notification `json:"items"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

func NewPage(items []*Notification, total int, f Filter) *Page {
	pages := 0
	if f.PageSize > 0 {
		pages = (total + f.PageSize - 1) / f.PageSize
	}
	return &Page{Items: items, Total: total, Page: f.Page, PageSize: f.PageSize, TotalPages: pages}
}
