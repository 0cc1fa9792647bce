package services

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forum-server/internal/models"
	"forum-server/internal/store"
)

func newTestAdmin(t *testing.T) (*AdminService, *store.Store) {
	t.Helper()
	st, err := store.Open("")
	require.NoError(t, err)
	return NewAdminService(st, testLogger()), st
}

func TestBanDurationsAndAccountLogSync(t *testing.T) {
	svc, st := newTestAdmin(t)
	seedMember(t, st, "user-1", "alice")
	require.NoError(t, st.Update(func(d *models.Document) error {
		d.AccountLogs = append(d.AccountLogs, &models.AccountLog{
			ID: "log-1", Username: "alice", UID: 1, Timestamp: time.Now().UnixMilli(),
		})
		return nil
	}))

	require.NoError(t, svc.Ban("user-1", "spam", "1w"))
	_ = st.View(func(d *models.Document) error {
		u := store.NewUserRepo(d).ByID("user-1")
		require.True(t, u.Banned)
		require.NotNil(t, u.BanExpiresAt)
		assert.Equal(t, "1w", *u.BanDurationLabel)
		assert.InDelta(t, time.Now().UnixMilli()+7*24*60*60*1000, *u.BanExpiresAt, 5000)
		assert.True(t, d.AccountLogs[0].Banned)
		return nil
	})

	require.NoError(t, svc.Unban("user-1"))
	_ = st.View(func(d *models.Document) error {
		u := store.NewUserRepo(d).ByID("user-1")
		assert.False(t, u.Banned)
		assert.Nil(t, u.BanExpiresAt)
		assert.False(t, d.AccountLogs[0].Banned)
		return nil
	})

	// "0" is a permanent ban with no expiry.
	require.NoError(t, svc.Ban("user-1", "", "0"))
	_ = st.View(func(d *models.Document) error {
		u := store.NewUserRepo(d).ByID("user-1")
		require.True(t, u.Banned)
		assert.Nil(t, u.BanExpiresAt)
		assert.Equal(t, "No reason provided", *u.BanReason)
		return nil
	})

	err := svc.Ban("user-1", "x", "2h")
	e := appErr(t, err)
	assert.Equal(t, http.StatusBadRequest, e.Status)
}

func TestBanRejectsAdmins(t *testing.T) {
	svc, st := newTestAdmin(t)
	seedMember(t, st, "user-1", "boss")
	require.NoError(t, st.Update(func(d *models.Document) error {
		admin := models.StaffRoleAdmin
		store.NewUserRepo(d).ByID("user-1").StaffRole = &admin
		return nil
	}))

	err := svc.Ban("user-1", "nope", "1d")
	e := appErr(t, err)
	assert.Equal(t, http.StatusForbidden, e.Status)
}

func TestChangeUIDSwaps(t *testing.T) {
	svc, st := newTestAdmin(t)
	seedMember(t, st, "user-1", "alice") // uid 1
	seedMember(t, st, "user-2", "bob")   // uid 2

	require.NoError(t, svc.ChangeUID("user-1", 2))
	_ = st.View(func(d *models.Document) error {
		assert.Equal(t, 2, store.NewUserRepo(d).ByID("user-1").UID)
		assert.Equal(t, 1, store.NewUserRepo(d).ByID("user-2").UID)
		return nil
	})

	// Moving to a free uid raises the counter past it.
	require.NoError(t, svc.ChangeUID("user-1", 50))
	_ = st.View(func(d *models.Document) error {
		assert.Equal(t, 50, store.NewUserRepo(d).ByID("user-1").UID)
		assert.Equal(t, 50, d.UIDCounter)
		return nil
	})
}

func TestSetStaffRoleSyncsRoles(t *testing.T) {
	svc, st := newTestAdmin(t)
	seedMember(t, st, "user-1", "alice")

	admin := models.StaffRoleAdmin
	require.NoError(t, svc.SetStaffRole("user-1", &admin))
	_ = st.View(func(d *models.Document) error {
		u := store.NewUserRepo(d).ByID("user-1")
		assert.Equal(t, models.RoleStaff, u.Role)
		assert.Contains(t, u.Roles, "role_admin")
		return nil
	})

	require.NoError(t, svc.SetStaffRole("user-1", nil))
	_ = st.View(func(d *models.Document) error {
		u := store.NewUserRepo(d).ByID("user-1")
		assert.Equal(t, models.RoleUser, u.Role)
		assert.Nil(t, u.StaffRole)
		assert.NotContains(t, u.Roles, "role_admin")
		return nil
	})
}

func TestSetRolesActions(t *testing.T) {
	svc, st := newTestAdmin(t)
	seedMember(t, st, "user-1", "alice")
	require.NoError(t, st.Update(func(d *models.Document) error {
		store.NewRoleRepo(d).Add(&models.Role{ID: "role_vip", Name: "VIP"})
		return nil
	}))

	require.NoError(t, svc.SetRoles("user-1", "add", []string{"role_vip"}))
	require.NoError(t, svc.SetRoles("user-1", "add", []string{"role_vip"})) // idempotent
	_ = st.View(func(d *models.Document) error {
		u := store.NewUserRepo(d).ByID("user-1")
		assert.Equal(t, []string{"role_member", "role_vip"}, u.Roles)
		return nil
	})

	require.NoError(t, svc.SetRoles("user-1", "remove", []string{"role_member"}))
	require.NoError(t, svc.SetRoles("user-1", "set", []string{"role_member"}))
	_ = st.View(func(d *models.Document) error {
		assert.Equal(t, []string{"role_member"}, store.NewUserRepo(d).ByID("user-1").Roles)
		return nil
	})

	err := svc.SetRoles("user-1", "add", []string{"role_ghost"})
	e := appErr(t, err)
	assert.Equal(t, http.StatusNotFound, e.Status)
}

func TestDeleteRankClearsAssignments(t *testing.T) {
	svc, st := newTestAdmin(t)
	seedMember(t, st, "user-1", "alice")

	rank, err := svc.CreateRank(RankInput{Name: "VIP", Permissions: map[models.Permission]bool{models.PermViewTickets: true}})
	require.NoError(t, err)
	require.NoError(t, svc.AssignRank("user-1", &rank.ID))

	require.NoError(t, svc.DeleteRank(rank.ID))
	_ = st.View(func(d *models.Document) error {
		assert.Nil(t, store.NewUserRepo(d).ByID("user-1").Profile.CustomRank)
		return nil
	})
}

func TestUpdateRankMergesPermissions(t *testing.T) {
	svc, _ := newTestAdmin(t)

	rank, err := svc.CreateRank(RankInput{Name: "VIP", Permissions: map[models.Permission]bool{models.PermViewTickets: true}})
	require.NoError(t, err)

	updated, err := svc.UpdateRank(rank.ID, RankInput{Permissions: map[models.Permission]bool{models.PermGenerateInvites: true}})
	require.NoError(t, err)
	assert.True(t, updated.Permissions[models.PermViewTickets], "existing grants survive a partial update")
	assert.True(t, updated.Permissions[models.PermGenerateInvites])
}

func TestListUsersSearch(t *testing.T) {
	svc, st := newTestAdmin(t)
	seedMember(t, st, "user-1", "alice")
	seedMember(t, st, "user-2", "bob")

	all, err := svc.ListUsers("")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	hits, err := svc.ListUsers("ALI")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "alice", hits[0].Username)
}

func TestIPRanking(t *testing.T) {
	svc, st := newTestAdmin(t)
	seedMember(t, st, "user-1", "alice")
	seedMember(t, st, "user-2", "bob")
	require.NoError(t, st.Update(func(d *models.Document) error {
		store.NewUserRepo(d).ByID("user-1").LastIP = "1.2.3.4"
		store.NewUserRepo(d).ByID("user-2").LastIP = "1.2.3.4"
		return nil
	}))

	ranking, err := svc.IPRanking()
	require.NoError(t, err)
	require.NotEmpty(t, ranking)
	assert.Equal(t, "1.2.3.4", ranking[0].IP)
	assert.Equal(t, 2, ranking[0].Count)
	assert.Equal(t, []string{"alice", "bob"}, ranking[0].Usernames)
}
