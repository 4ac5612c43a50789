package models

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

const ProfileTable = "profiles"

func (su *SupabaseRepo) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: invalid UUID", ErrValidation)
	}
	if su.supabaseClient == nil {
		return nil, fmt.Errorf("supabase client is not initialized")
	}

	raw, status, err := su.supabaseClient.From(ProfileTable).
		Select("id,fullname,email,phone_number", "", false).
		Eq("id", id.String()).
		Execute()
	if err != nil {
		if status != 0 {
			return nil, fmt.Errorf("postgrest error: status=%d body=%s err=%v", status, string(raw), err)
		}
		return nil, fmt.Errorf("failed to get profile by ID: %v", err)
	}

	// Supabase returns an array even for single results
	var profiles []Profile
	if err := json.Unmarshal(raw, &profiles); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile rows: %v", err)
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	return &profiles[0], nil
}
