package profile

import "context"

type Repository interface {
	FindByID(ctx context.Context, tenantID, id string) (*Profile, error)
	FindNames(ctx context.Context, tenantID string, ids []string) (map[string]string, error)
}
