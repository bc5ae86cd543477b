package api

import (
	"context"

	"github.com/bomcorte/blackfriday/internal/location"
	"github.com/bomcorte/blackfriday/internal/model"
	"github.com/bomcorte/blackfriday/internal/repository"
)

// leadStore defines the lead data access the API needs.
type leadStore interface {
	List(ctx context.Context, f repository.ListFilter) ([]model.Lead, int, error)
	Get(ctx context.Context, id int64) (*model.Lead, error)
	Create(ctx context.Context, sub model.LeadSubmission, ip, userAgent string) (int64, error)
	Update(ctx context.Context, id int64, changes map[string]any) error
	Delete(ctx context.Context, id int64) error
	GetStats(ctx context.Context) (*repository.LeadStats, error)
}

// contentStore defines the landing page config access the API needs.
type contentStore interface {
	GetContent(ctx context.Context) (*model.LandingPageContent, error)
	SaveContent(ctx context.Context, content model.LandingPageContent) error
	GetIntegrations(ctx context.Context) ([]model.Integration, error)
	SaveIntegrations(ctx context.Context, integrations []model.Integration) error
}

// userStore defines the admin account access the API needs.
type userStore interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Get(ctx context.Context, id int64) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Create(ctx context.Context, email, passwordHash string, role model.Role) (int64, error)
	Update(ctx context.Context, id int64, changes map[string]any) error
	Delete(ctx context.Context, id int64) error
}

// auditLog records admin actions; failures never propagate.
type auditLog interface {
	Record(ctx context.Context, userID int64, action string, details any, ip string)
}

// locationService defines the external lookup access the API proxies.
type locationService interface {
	Regions(ctx context.Context) ([]location.RegionOption, error)
	Cities(ctx context.Context, regionCode string) ([]location.CityOption, error)
	ResolvePostalCode(ctx context.Context, postalCode string) (*location.Address, error)
}

// leadNotifier forwards created leads to configured integrations.
type leadNotifier interface {
	NotifyLead(ctx context.Context, sub model.LeadSubmission)
}
