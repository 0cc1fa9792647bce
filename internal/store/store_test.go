package store

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forum-server/internal/models"
)

func TestOpenSeedsMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")

	st, err := Open(path)
	require.NoError(t, err)

	_ = st.View(func(d *models.Document) error {
		assert.Equal(t, 1, d.UIDCounter)
		assert.True(t, d.ForumStatus.IsOpen)
		require.Len(t, d.Roles, 1)
		assert.Equal(t, "role_member", d.Roles[0].ID)
		assert.Len(t, d.Forums, 2)
		return nil
	})

	// The seed was written out immediately.
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestUpdatePersistsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")

	st, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Update(func(d *models.Document) error {
		NewUserRepo(d).Add(&models.User{ID: "u1", UID: NewUserRepo(d).NextUID(), Username: "alice", Roles: []string{}})
		return nil
	}))

	reopened, err := Open(path)
	require.NoError(t, err)
	_ = reopened.View(func(d *models.Document) error {
		u := NewUserRepo(d).ByUsername("alice")
		require.NotNil(t, u)
		assert.Equal(t, 1, u.UID)
		assert.Equal(t, 2, d.UIDCounter)
		return nil
	})
}

func TestUpdateErrorDoesNotPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")

	st, err := Open(path)
	require.NoError(t, err)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	wantErr := fmt.Errorf("nope")
	err = st.Update(func(d *models.Document) error { return wantErr })
	assert.ErrorIs(t, err, wantErr)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestOpenNormalizesSparseDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	sparse := `{"users":[{"id":"u1","uid":3,"username":"old"}],"tickets":[{"id":"t1","subject":"s"}]}`
	require.NoError(t, os.WriteFile(path, []byte(sparse), 0o600))

	st, err := Open(path)
	require.NoError(t, err)
	_ = st.View(func(d *models.Document) error {
		u := NewUserRepo(d).ByID("u1")
		require.NotNil(t, u)
		assert.NotNil(t, u.Roles)
		assert.NotNil(t, u.IPs)
		require.Len(t, d.Tickets, 1)
		assert.NotNil(t, d.Tickets[0].Responses)
		assert.GreaterOrEqual(t, d.UIDCounter, 1)
		return nil
	})
}

func TestCaseInsensitiveUsernameLookup(t *testing.T) {
	st, err := Open("")
	require.NoError(t, err)
	require.NoError(t, st.Update(func(d *models.Document) error {
		NewUserRepo(d).Add(&models.User{ID: "u1", Username: "Alice"})
		return nil
	}))

	_ = st.View(func(d *models.Document) error {
		assert.NotNil(t, NewUserRepo(d).ByUsername("alice"))
		assert.NotNil(t, NewUserRepo(d).ByUsername("ALICE"))
		assert.Nil(t, NewUserRepo(d).ByUsername("bob"))
		return nil
	})
}

func TestForumRemoveCascades(t *testing.T) {
	st, err := Open("")
	require.NoError(t, err)

	require.NoError(t, st.Update(func(d *models.Document) error {
		threads := NewThreadRepo(d)
		threads.Add(&models.Thread{ID: "t1", ForumID: "forum_general", Title: "a"})
		threads.Add(&models.Thread{ID: "t2", ForumID: "forum_trading", Title: "b"})
		threads.AddPost(&models.Post{ID: "p1", ThreadID: "t1"})
		threads.AddPost(&models.Post{ID: "p2", ThreadID: "t2"})
		return nil
	}))

	require.NoError(t, st.Update(func(d *models.Document) error {
		require.True(t, NewForumRepo(d).Remove("forum_general"))
		return nil
	}))

	_ = st.View(func(d *models.Document) error {
		assert.Nil(t, NewThreadRepo(d).ByID("t1"))
		assert.NotNil(t, NewThreadRepo(d).ByID("t2"))
		require.Len(t, d.Posts, 1)
		assert.Equal(t, "p2", d.Posts[0].ID)
		return nil
	})
}

func TestRoleRemoveStripsUsers(t *testing.T) {
	st, err := Open("")
	require.NoError(t, err)

	require.NoError(t, st.Update(func(d *models.Document) error {
		NewRoleRepo(d).Add(&models.Role{ID: "role_vip", Name: "VIP"})
		NewUserRepo(d).Add(&models.User{ID: "u1", Username: "alice", Roles: []string{"role_member", "role_vip"}})
		return nil
	}))

	require.NoError(t, st.Update(func(d *models.Document) error {
		NewRoleRepo(d).Remove("role_vip")
		return nil
	}))

	_ = st.View(func(d *models.Document) error {
		assert.Nil(t, NewRoleRepo(d).ByID("role_vip"))
		assert.Equal(t, []string{"role_member"}, NewUserRepo(d).ByID("u1").Roles)
		return nil
	})
}
