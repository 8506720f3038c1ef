//go:build integration

package repository

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxislabs/praxis/internal/domain"
)

func TestCollectionRepository_GetWithItems(t *testing.T) {
	ctx, pool := newIntegrationPool(t)
	orgID := seedOrg(ctx, t, pool)
	repo := NewCollectionRepository(pool)

	collectionID := uuid.NewString()
	_, err := pool.Exec(ctx,
		`INSERT INTO collections (id, org_id, title, description) VALUES ($1, $2, $3, $4)`,
		collectionID, orgID, "Starter Pack", "first week content")
	require.NoError(t, err)

	courseID := seedCourse(ctx, t, pool, orgID, "A Course", domain.CourseStatusPublished)
	resourceID := uuid.NewString()
	_, err = pool.Exec(ctx,
		`INSERT INTO resources (id, org_id, title) VALUES ($1, $2, $3)`,
		resourceID, orgID, "A Resource")
	require.NoError(t, err)

	// Seeded out of position order on purpose.
	_, err = pool.Exec(ctx,
		`INSERT INTO collection_items (collection_id, item_type, item_id, position)
		 VALUES ($1, $2, $3, 2), ($1, $4, $5, 1)`,
		collectionID, domain.CollectionItemResource, resourceID, domain.CollectionItemCourse, courseID)
	require.NoError(t, err)

	col, err := repo.GetWithItems(ctx, collectionID)
	require.NoError(t, err)
	assert.Equal(t, "Starter Pack", col.Title)
	require.Len(t, col.Items, 2)
	assert.Equal(t, domain.CollectionItemCourse, col.Items[0].ItemType)
	assert.Equal(t, courseID, col.Items[0].ItemID)
	assert.Equal(t, resourceID, col.Items[1].ItemID)
}

func TestCollectionRepository_GetWithItems_NotFound(t *testing.T) {
	ctx, pool := newIntegrationPool(t)
	repo := NewCollectionRepository(pool)

	_, err := repo.GetWithItems(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound)
}

func TestResourceRepository_GetByID(t *testing.T) {
	ctx, pool := newIntegrationPool(t)
	orgID := seedOrg(ctx, t, pool)
	repo := NewResourceRepository(pool)

	resourceID := uuid.NewString()
	_, err := pool.Exec(ctx,
		`INSERT INTO resources (id, org_id, title, author_name, url)
		 VALUES ($1, $2, $3, $4, $5)`,
		resourceID, orgID, "Style Guide", "Docs Team", "https://example.com/guide")
	require.NoError(t, err)

	res, err := repo.GetByID(ctx, resourceID)
	require.NoError(t, err)
	assert.Equal(t, "Style Guide", res.Title)
	assert.Equal(t, "https://example.com/guide", res.URL)

	_, err = repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrResourceNotFound)
}
