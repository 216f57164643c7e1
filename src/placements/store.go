package placements

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gracecoe/placement-portal/src/models"
)

const (
	internshipKeyPrefix = "internship:"
	internshipIndexKey  = "internships"
	placementKeyPrefix  = "placement:"
	placementIndexKey   = "placements"
)

// InternshipStore keeps internship postings as JSON rows with a set
// index for listing.
type InternshipStore struct {
	client *redis.Client
}

func NewInternshipStore(client *redis.Client) *InternshipStore {
	return &InternshipStore{
		client: client,
	}
}

func (s *InternshipStore) Create(ctx context.Context, internship *models.Internship) error {
	if internship.ID == "" {
		internship.ID = uuid.New().String()
	}
	now := time.Now()
	internship.CreatedAt = now
	internship.UpdatedAt = now

	data, err := json.Marshal(internship)
	if err != nil {
		return fmt.Errorf("failed to marshal internship: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, internshipKeyPrefix+internship.ID, data, 0)
	pipe.SAdd(ctx, internshipIndexKey, internship.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save internship: %w", err)
	}

	return nil
}

func (s *InternshipStore) Get(ctx context.Context, id string) (*models.Internship, error) {
	data, err := s.client.Get(ctx, internshipKeyPrefix+id).Result()
	if err == redis.Nil {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get internship: %w", err)
	}

	var internship models.Internship
	if err := json.Unmarshal([]byte(data), &internship); err != nil {
		return nil, fmt.Errorf("failed to unmarshal internship: %w", err)
	}

	return &internship, nil
}

func (s *InternshipStore) List(ctx context.Context) ([]*models.Internship, error) {
	ids, err := s.client.SMembers(ctx, internshipIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list internships: %w", err)
	}

	internships := make([]*models.Internship, 0, len(ids))
	for _, id := range ids {
		internship, err := s.Get(ctx, id)
		if err != nil {
			// Tolerate rows deleted between SMembers and Get.
			continue
		}
		internships = append(internships, internship)
	}

	return internships, nil
}

func (s *InternshipStore) Update(ctx context.Context, internship *models.Internship) error {
	existing, err := s.Get(ctx, internship.ID)
	if err != nil {
		return err
	}

	// Fields the edit form does not carry survive the rewrite.
	internship.CreatedAt = existing.CreatedAt
	if internship.PostedBy == "" {
		internship.PostedBy = existing.PostedBy
	}
	if internship.Deadline.IsZero() {
		internship.Deadline = existing.Deadline
	}
	internship.UpdatedAt = time.Now()

	data, err := json.Marshal(internship)
	if err != nil {
		return fmt.Errorf("failed to marshal internship: %w", err)
	}

	return s.client.Set(ctx, internshipKeyPrefix+internship.ID, data, 0).Err()
}

func (s *InternshipStore) Delete(ctx context.Context, id string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, internshipKeyPrefix+id)
	pipe.SRem(ctx, internshipIndexKey, id)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete internship: %w", err)
	}

	return nil
}

// PlacementStore keeps historical placement records, same layout as
// internships.
type PlacementStore struct {
	client *redis.Client
}

func NewPlacementStore(client *redis.Client) *PlacementStore {
	return &PlacementStore{
		client: client,
	}
}

func (s *PlacementStore) Create(ctx context.Context, placement *models.Placement) error {
	if placement.ID == "" {
		placement.ID = uuid.New().String()
	}
	now := time.Now()
	placement.CreatedAt = now
	placement.UpdatedAt = now

	data, err := json.Marshal(placement)
	if err != nil {
		return fmt.Errorf("failed to marshal placement: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, placementKeyPrefix+placement.ID, data, 0)
	pipe.SAdd(ctx, placementIndexKey, placement.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save placement: %w", err)
	}

	return nil
}

func (s *PlacementStore) Get(ctx context.Context, id string) (*models.Placement, error) {
	data, err := s.client.Get(ctx, placementKeyPrefix+id).Result()
	if err == redis.Nil {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get placement: %w", err)
	}

	var placement models.Placement
	if err := json.Unmarshal([]byte(data), &placement); err != nil {
		return nil, fmt.Errorf("failed to unmarshal placement: %w", err)
	}

	return &placement, nil
}

func (s *PlacementStore) List(ctx context.Context) ([]*models.Placement, error) {
	ids, err := s.client.SMembers(ctx, placementIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list placements: %w", err)
	}

	placements := make([]*models.Placement, 0, len(ids))
	for _, id := range ids {
		placement, err := s.Get(ctx, id)
		if err != nil {
			continue
		}
		placements = append(placements, placement)
	}

	return placements, nil
}

func (s *PlacementStore) Update(ctx context.Context, placement *models.Placement) error {
	existing, err := s.Get(ctx, placement.ID)
	if err != nil {
		return err
	}

	placement.CreatedAt = existing.CreatedAt
	placement.UpdatedAt = time.Now()

	data, err := json.Marshal(placement)
	if err != nil {
		return fmt.Errorf("failed to marshal placement: %w", err)
	}

	return s.client.Set(ctx, placementKeyPrefix+placement.ID, data, 0).Err()
}

func (s *PlacementStore) Delete(ctx context.Context, id string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, placementKeyPrefix+id)
	pipe.SRem(ctx, placementIndexKey, id)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete placement: %w", err)
	}

	return nil
}
