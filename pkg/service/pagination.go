package service

import (
	"github.com/example/shopfront/pkg/repository"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 50
)

type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int64 `json:"pages"`
}

// NormalizePage clamps page to at least 1 and limit to [1, MaxPageLimit].
// A zero limit means the caller gave none.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit == 0 {
		limit = DefaultPageLimit
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

func NewPagination(total int64, page, limit int) Pagination {
	l := int64(limit)
	return Pagination{
		Total: total,
		Page:  page,
		Limit: limit,
		Pages: (total + l - 1) / l,
	}
}

func window(page, limit int) repository.Page {
	return repository.Page{Limit: limit, Offset: (page - 1) * limit}
}
