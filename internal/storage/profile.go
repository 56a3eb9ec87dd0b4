package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/kinetic/internal/models"
)

// ErrInvalidProfile wraps profile validation failures.
var ErrInvalidProfile = errors.New("invalid profile")

// GetProfile returns the stored profile, or the default one.
func (s *Store) GetProfile(ctx context.Context, ns string) (models.Profile, error) {
	p, err := Load(ctx, s.kv, ns, KeyProfile, models.DefaultProfile())
	if err != nil {
		return models.Profile{}, err
	}
	if err := p.Normalize(); err != nil {
		return models.DefaultProfile(), nil
	}
	return p, nil
}

// PutProfile validates and stores p.
func (s *Store) PutProfile(ctx context.Context, ns string, p models.Profile) (models.Profile, error) {
	if err := p.Normalize(); err != nil {
		return models.Profile{}, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	if err := Save(ctx, s.kv, ns, KeyProfile, p); err != nil {
		return models.Profile{}, err
	}
	return p, nil
}
