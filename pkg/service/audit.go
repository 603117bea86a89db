package service

import (
	"context"

	"github.com/example/shopfront/pkg/auth"
	"github.com/example/shopfront/pkg/repository"
)

const (
	DefaultAuditLimit = 50
	MaxAuditLimit     = 200
)

var auditEntities = map[string]bool{"order": true, "payment": true, "user": true}

type AuditService struct {
	audit repository.AuditLog
}

func NewAuditService(audit repository.AuditLog) *AuditService {
	if audit == nil {
		audit = repository.NopAuditLog{}
	}
	return &AuditService{audit: audit}
}

// History lists the newest audit entries recorded for one entity.
func (s *AuditService) History(ctx context.Context, p *auth.Principal, entity string, entityID uint, limit int) ([]*repository.AuditEntry, error) {
	if !p.IsAdmin() {
		return nil, ErrForbidden
	}
	if !auditEntities[entity] {
		return nil, validationf("entity must be order, payment or user")
	}
	if limit < 1 {
		limit = DefaultAuditLimit
	}
	if limit > MaxAuditLimit {
		limit = MaxAuditLimit
	}

	entries, err := s.audit.History(ctx, entity, entityID, int64(limit))
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*repository.AuditEntry{}
	}
	return entries, nil
}
