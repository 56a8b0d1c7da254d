// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/crm/internal/platform/apperr"
	"github.com/taibuivan/crm/internal/platform/clock"
	"github.com/taibuivan/crm/internal/platform/constants"
	"github.com/taibuivan/crm/internal/system/audit"
	"github.com/taibuivan/crm/pkg/pointer"
)

const actorID = "0190a6b2-7c3e-7d4f-8a1b-2c3d4e5f6a7b"

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

/*
TestService_Create assigns identity and time and masks secrets.
*/
func TestService_Create(t *testing.T) {
	repository := &memoryRepository{}
	service := audit.NewService(repository, clock.NewFake(epoch))

	entry, err := service.Create(context.Background(), audit.Entry{
		ActorID: pointer.To(actorID),
		Action:  " auth.login ",
		Status:  audit.StatusSuccess,
		Meta:    map[string]any{"password": "hunter2"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "auth.login", entry.Action)
	assert.Equal(t, epoch, entry.CreatedAt)
	assert.Equal(t, constants.UnknownUserAgent, entry.Agent)
	assert.Equal(t, "****", entry.Meta["password"])
	assert.Len(t, repository.all(), 1)
}

/*
TestService_Create_Validation rejects malformed entries without writing.
*/
func TestService_Create_Validation(t *testing.T) {
	tests := []struct {
		name  string
		entry audit.Entry
	}{
		{"empty_action", audit.Entry{Action: "  ", Status: audit.StatusSuccess}},
		{"unknown_status", audit.Entry{Action: "auth.me", Status: "maybe"}},
		{"bad_actor", audit.Entry{Action: "auth.me", Status: audit.StatusSuccess, ActorID: pointer.To("42")}},
		{"half_target", audit.Entry{Action: "user.update", Status: audit.StatusSuccess, TargetID: pointer.To(actorID)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repository := &memoryRepository{}
			service := audit.NewService(repository, clock.NewFake(epoch))

			_, err := service.Create(context.Background(), tt.entry)
			assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
			assert.Empty(t, repository.all())
		})
	}
}

/*
TestService_FindInPeriod enforces start < end and an inclusive window.
*/
func TestService_FindInPeriod(t *testing.T) {
	repository := &memoryRepository{}
	fake := clock.NewFake(epoch)
	service := audit.NewService(repository, fake)

	for i := 0; i < 4; i++ {
		_, err := service.Create(context.Background(), audit.Entry{Action: "auth.me", Status: audit.StatusSuccess})
		require.NoError(t, err)
		fake.Advance(time.Hour)
	}

	t.Run("equal_bounds", func(t *testing.T) {
		_, _, err := service.FindInPeriod(context.Background(), epoch, epoch, firstPage)
		assert.True(t, apperr.HasCode(err, apperr.CodeInvalidRange))
	})

	t.Run("inverted_bounds", func(t *testing.T) {
		_, _, err := service.FindInPeriod(context.Background(), epoch.Add(time.Hour), epoch, firstPage)
		assert.True(t, apperr.HasCode(err, apperr.CodeInvalidRange))
	})

	t.Run("inclusive_window", func(t *testing.T) {
		entries, total, err := service.FindInPeriod(context.Background(), epoch, epoch.Add(2*time.Hour), firstPage)
		require.NoError(t, err)

		assert.Equal(t, 3, total)
		require.Len(t, entries, 3)
		assert.Equal(t, epoch.Add(2*time.Hour), entries[0].CreatedAt)
		assert.Equal(t, epoch, entries[2].CreatedAt)
	})
}

/*
TestService_FindByActor returns only the actor's entries, newest first.
*/
func TestService_FindByActor(t *testing.T) {
	repository := &memoryRepository{}
	fake := clock.NewFake(epoch)
	service := audit.NewService(repository, fake)

	for _, actor := range []*string{pointer.To(actorID), nil, pointer.To(actorID)} {
		_, err := service.Create(context.Background(), audit.Entry{ActorID: actor, Action: "auth.me", Status: audit.StatusSuccess})
		require.NoError(t, err)
		fake.Advance(time.Minute)
	}

	entries, total, err := service.FindByActor(context.Background(), actorID, firstPage)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.True(t, entries[0].CreatedAt.After(entries[1].CreatedAt))

	_, _, err = service.FindByActor(context.Background(), "not-a-uuid", firstPage)
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
}

/*
TestService_FindByTarget filters on both target id and type.
*/
func TestService_FindByTarget(t *testing.T) {
	repository := &memoryRepository{}
	service := audit.NewService(repository, clock.NewFake(epoch))

	_, err := service.Create(context.Background(), audit.Entry{
		Action:     "user.update",
		Status:     audit.StatusSuccess,
		TargetID:   pointer.To(actorID),
		TargetType: pointer.To(audit.TargetTypeUser),
	})
	require.NoError(t, err)

	entries, total, err := service.FindByTarget(context.Background(), actorID, audit.TargetTypeUser, firstPage)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "user.update", entries[0].Action)

	_, total, err = service.FindByTarget(context.Background(), actorID, "client", firstPage)
	require.NoError(t, err)
	assert.Zero(t, total)
}
