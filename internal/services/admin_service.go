package services

import (
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"forum-server/internal/models"
	"forum-server/internal/store"
	"forum-server/internal/utils"
)

// Ban duration labels accepted by the ban endpoint. "0" means permanent.
var banDurations = map[string]int64{
	"1d":  24 * 60 * 60 * 1000,
	"1w":  7 * 24 * 60 * 60 * 1000,
	"1mo": 30 * 24 * 60 * 60 * 1000,
	"1y":  365 * 24 * 60 * 60 * 1000,
}

type AdminService struct {
	store *store.Store
	log   *slog.Logger
}

func NewAdminService(st *store.Store, log *slog.Logger) *AdminService {
	return &AdminService{store: st, log: log}
}

// AdminUserPayload is the staff panel's user row: richer than the public
// payload but still without password or code hashes.
type AdminUserPayload struct {
	UserPayload
	Banned           bool            `json:"banned"`
	BanReason        *string         `json:"banReason"`
	BanExpiresAt     *int64          `json:"banExpiresAt"`
	BanDurationLabel *string         `json:"banDurationLabel"`
	RegisteredIP     string          `json:"registeredIp"`
	LastIP           string          `json:"lastIp"`
	IPs              []models.IPLog  `json:"ips"`
	Profile          models.Profile  `json:"profile"`
	CreatedAt        int64           `json:"createdAt"`
}

func adminUserPayload(u *models.User) AdminUserPayload {
	ips := u.IPs
	if ips == nil {
		ips = []models.IPLog{}
	}
	return AdminUserPayload{
		UserPayload:      userPayload(u),
		Banned:           u.Banned,
		BanReason:        u.BanReason,
		BanExpiresAt:     u.BanExpiresAt,
		BanDurationLabel: u.BanDurationLabel,
		RegisteredIP:     u.RegisteredIP,
		LastIP:           u.LastIP,
		IPs:              ips,
		Profile:          u.Profile,
		CreatedAt:        u.CreatedAt,
	}
}

// ListUsers returns all users, optionally filtered by a case-insensitive
// substring match on username or email. Expired bans are cleared as a side
// effect of listing.
func (s *AdminService) ListUsers(search string) ([]AdminUserPayload, error) {
	now := nowMillis()
	needle := strings.ToLower(strings.TrimSpace(search))
	out := []AdminUserPayload{}
	err := s.store.Update(func(d *models.Document) error {
		for _, u := range store.NewUserRepo(d).All() {
			clearExpiredBan(u, now)
			if needle != "" &&
				!strings.Contains(strings.ToLower(u.Username), needle) &&
				!strings.Contains(strings.ToLower(u.Email), needle) {
				continue
			}
			out = append(out, adminUserPayload(u))
		}
		return nil
	})
	return out, err
}

type CreateUserInput struct {
	Username  string
	Password  string
	Email     string
	StaffRole *string
	ClientIP  string
}

// CreateUser provisions an account without consuming an invite key.
func (s *AdminService) CreateUser(in CreateUserInput) (*AdminUserPayload, error) {
	if !utils.ValidUsername(in.Username) {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "username must be 3-32 characters, alphanumeric with _ and -", nil)
	}
	if !utils.ValidEmail(in.Email) {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "invalid email format", nil)
	}
	if !utils.ValidPassword(in.Password) {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "password must be at least 8 characters", nil)
	}
	if in.StaffRole != nil && *in.StaffRole != models.StaffRoleAdmin && *in.StaffRole != models.StaffRoleManager {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "unknown staff role", nil)
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, utils.NewAppError(http.StatusInternalServerError, utils.CodeInternal, "could not secure password", nil)
	}

	now := nowMillis()
	var created *models.User
	err = s.store.Update(func(d *models.Document) error {
		users := store.NewUserRepo(d)
		if users.ByUsername(in.Username) != nil {
			return utils.NewAppError(http.StatusBadRequest, utils.CodeConflict, "username taken", nil)
		}
		if users.ByEmail(in.Email) != nil {
			return utils.NewAppError(http.StatusBadRequest, utils.CodeConflict, "email already registered", nil)
		}
		u := &models.User{
			ID:           uuid.NewString(),
			UID:          users.NextUID(),
			Username:     in.Username,
			Email:        in.Email,
			PasswordHash: string(hashBytes),
			Role:         models.RoleUser,
			Roles:        []string{"role_member"},
			RegisteredIP: in.ClientIP,
			LastIP:       in.ClientIP,
			IPs:          []models.IPLog{{IP: in.ClientIP, Timestamp: now}},
			CreatedAt:    now,
		}
		if in.StaffRole != nil {
			u.Role = models.RoleStaff
			u.StaffRole = in.StaffRole
		}
		users.Add(u)
		d.AccountLogs = append(d.AccountLogs, &models.AccountLog{
			ID:          uuid.NewString(),
			Username:    u.Username,
			UID:         u.UID,
			IP:          in.ClientIP,
			StaffStatus: staffStatus(u),
			Timestamp:   now,
		})
		created = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	p := adminUserPayload(created)
	return &p, nil
}

// Ban suspends a user. duration is one of 1d, 1w, 1mo, 1y, or "0" for a
// permanent ban. Mirrors the new state into the account log, matched on uid.
func (s *AdminService) Ban(userID, reason, duration string) error {
	var (
		length int64
		ok     bool
	)
	if duration != "0" {
		if length, ok = banDurations[duration]; !ok {
			return utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "unknown ban duration", nil)
		}
	}
	if strings.TrimSpace(reason) == "" {
		reason = "No reason provided"
	}

	now := nowMillis()
	return s.store.Update(func(d *models.Document) error {
		u := store.NewUserRepo(d).ByID(userID)
		if u == nil {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "user not found", nil)
		}
		if u.IsAdmin() {
			return utils.NewAppError(http.StatusForbidden, utils.CodeForbidden, "cannot ban an administrator", nil)
		}
		u.Banned = true
		u.BanReason = strPtr(reason)
		u.BanIssuedAt = int64Ptr(now)
		u.BanDurationLabel = strPtr(duration)
		if duration == "0" {
			u.BanExpiresAt = nil
		} else {
			u.BanExpiresAt = int64Ptr(now + length)
		}
		syncAccountLogBan(d, u.UID, true)
		return nil
	})
}

func (s *AdminService) Unban(userID string) error {
	return s.store.Update(func(d *models.Document) error {
		u := store.NewUserRepo(d).ByID(userID)
		if u == nil {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "user not found", nil)
		}
		u.Banned = false
		u.BanReason = nil
		u.BanIssuedAt = nil
		u.BanExpiresAt = nil
		u.BanDurationLabel = nil
		syncAccountLogBan(d, u.UID, false)
		return nil
	})
}

func syncAccountLogBan(d *models.Document, uid int, banned bool) {
	for _, l := range d.AccountLogs {
		if l.UID == uid {
			l.Banned = banned
		}
	}
}

// RevokeAccess locks a user out of the forum until they redeem a new key.
func (s *AdminService) RevokeAccess(userID string) error {
	now := nowMillis()
	return s.store.Update(func(d *models.Document) error {
		u := store.NewUserRepo(d).ByID(userID)
		if u == nil {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "user not found", nil)
		}
		if u.IsAdmin() {
			return utils.NewAppError(http.StatusForbidden, utils.CodeForbidden, "cannot revoke an administrator", nil)
		}
		u.AccessRevoked = true
		u.AccessRevokedAt = int64Ptr(now)
		return nil
	})
}

// ChangeUID reassigns a display uid. When the target uid is already held by
// another account the two accounts swap uids so the space stays collision
// free.
func (s *AdminService) ChangeUID(userID string, newUID int) error {
	if newUID < 1 {
		return utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "uid must be positive", nil)
	}
	return s.store.Update(func(d *models.Document) error {
		users := store.NewUserRepo(d)
		u := users.ByID(userID)
		if u == nil {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "user not found", nil)
		}
		if u.UID == newUID {
			return nil
		}
		if other := users.ByUID(newUID); other != nil {
			other.UID = u.UID
			syncAccountLogUID(d, other.Username, other.UID)
		}
		u.UID = newUID
		syncAccountLogUID(d, u.Username, u.UID)
		if newUID > d.UIDCounter {
			d.UIDCounter = newUID
		}
		return nil
	})
}

func syncAccountLogUID(d *models.Document, username string, uid int) {
	for _, l := range d.AccountLogs {
		if strings.EqualFold(l.Username, username) {
			l.UID = uid
		}
	}
}

// SetStaffRole promotes or demotes. An empty role clears staff status. The
// coarse role string and the role_admin/role_manager list entries are kept
// in sync with the staff role.
func (s *AdminService) SetStaffRole(userID string, staffRole *string) error {
	if staffRole != nil && *staffRole != models.StaffRoleAdmin && *staffRole != models.StaffRoleManager {
		return utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "unknown staff role", nil)
	}
	return s.store.Update(func(d *models.Document) error {
		u := store.NewUserRepo(d).ByID(userID)
		if u == nil {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "user not found", nil)
		}
		u.StaffRole = staffRole
		u.Roles = removeRoles(u.Roles, "role_admin", "role_manager")
		if staffRole == nil {
			u.Role = models.RoleUser
		} else {
			u.Role = models.RoleStaff
			u.Roles = append(u.Roles, "role_"+*staffRole)
		}
		for _, l := range d.AccountLogs {
			if l.UID == u.UID {
				l.StaffStatus = staffStatus(u)
			}
		}
		return nil
	})
}

func removeRoles(roles []string, drop ...string) []string {
	out := roles[:0]
	for _, r := range roles {
		keep := true
		for _, dr := range drop {
			if r == dr {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, r)
		}
	}
	return out
}

// SetRoles applies an add, remove, or wholesale set of a user's role list.
// Every referenced role must exist.
func (s *AdminService) SetRoles(userID, action string, roleIDs []string) error {
	switch action {
	case "add", "remove", "set":
	default:
		return utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "action must be add, remove or set", nil)
	}
	return s.store.Update(func(d *models.Document) error {
		u := store.NewUserRepo(d).ByID(userID)
		if u == nil {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "user not found", nil)
		}
		roles := store.NewRoleRepo(d)
		for _, id := range roleIDs {
			if roles.ByID(id) == nil {
				return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "role not found: "+id, nil)
			}
		}
		switch action {
		case "set":
			u.Roles = append([]string{}, roleIDs...)
		case "add":
			for _, id := range roleIDs {
				if !containsStr(u.Roles, id) {
					u.Roles = append(u.Roles, id)
				}
			}
		case "remove":
			u.Roles = removeRoles(u.Roles, roleIDs...)
		}
		return nil
	})
}

func containsStr(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// AccountLogs returns the audit trail newest first.
func (s *AdminService) AccountLogs() ([]*models.AccountLog, error) {
	out := []*models.AccountLog{}
	err := s.store.View(func(d *models.Document) error {
		out = append(out, d.AccountLogs...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out, nil
}

type IPRankingEntry struct {
	IP        string   `json:"ip"`
	Count     int      `json:"count"`
	Usernames []string `json:"usernames"`
}

// IPRanking aggregates every recorded IP across all users, most shared
// first. Useful for spotting alt accounts.
func (s *AdminService) IPRanking() ([]IPRankingEntry, error) {
	byIP := map[string]map[string]bool{}
	err := s.store.View(func(d *models.Document) error {
		for _, u := range d.Users {
			seen := map[string]bool{u.RegisteredIP: true, u.LastIP: true}
			for _, l := range u.IPs {
				seen[l.IP] = true
			}
			for ip := range seen {
				if ip == "" {
					continue
				}
				if byIP[ip] == nil {
					byIP[ip] = map[string]bool{}
				}
				byIP[ip][u.Username] = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := []IPRankingEntry{}
	for ip, users := range byIP {
		entry := IPRankingEntry{IP: ip, Count: len(users)}
		for name := range users {
			entry.Usernames = append(entry.Usernames, name)
		}
		sort.Strings(entry.Usernames)
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].IP < out[j].IP
	})
	return out, nil
}

type RoleInput struct {
	Name        string                     `json:"name"`
	Color       string                     `json:"color"`
	Permissions map[models.Permission]bool `json:"permissions"`
	Position    int                        `json:"position"`
}

func (s *AdminService) Roles() ([]*models.Role, error) {
	out := []*models.Role{}
	err := s.store.View(func(d *models.Document) error {
		out = append(out, store.NewRoleRepo(d).All()...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (s *AdminService) CreateRole(in RoleInput) (*models.Role, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "role name required", nil)
	}
	role := &models.Role{
		ID:          "role_" + uuid.NewString()[:8],
		Name:        in.Name,
		Color:       in.Color,
		Permissions: in.Permissions,
		Position:    in.Position,
	}
	if role.Permissions == nil {
		role.Permissions = map[models.Permission]bool{}
	}
	err := s.store.Update(func(d *models.Document) error {
		store.NewRoleRepo(d).Add(role)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return role, nil
}

func (s *AdminService) UpdateRole(id string, in RoleInput) (*models.Role, error) {
	var out *models.Role
	err := s.store.Update(func(d *models.Document) error {
		role := store.NewRoleRepo(d).ByID(id)
		if role == nil {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "role not found", nil)
		}
		if strings.TrimSpace(in.Name) != "" {
			role.Name = in.Name
		}
		if in.Color != "" {
			role.Color = in.Color
		}
		if in.Permissions != nil {
			role.Permissions = in.Permissions
		}
		role.Position = in.Position
		out = role
		return nil
	})
	return out, err
}

// DeleteRole removes the role and strips it from every user carrying it.
func (s *AdminService) DeleteRole(id string) error {
	return s.store.Update(func(d *models.Document) error {
		if store.NewRoleRepo(d).ByID(id) == nil {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "role not found", nil)
		}
		store.NewRoleRepo(d).Remove(id)
		return nil
	})
}

type RankInput struct {
	Name        string                     `json:"name"`
	Color       string                     `json:"color"`
	Permissions map[models.Permission]bool `json:"permissions"`
}

func (s *AdminService) Ranks() ([]*models.Rank, error) {
	out := []*models.Rank{}
	err := s.store.View(func(d *models.Document) error {
		out = append(out, store.NewRankRepo(d).All()...)
		return nil
	})
	return out, err
}

func (s *AdminService) CreateRank(in RankInput) (*models.Rank, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "rank name required", nil)
	}
	rank := &models.Rank{
		ID:          "rank_" + uuid.NewString()[:8],
		Name:        in.Name,
		Color:       in.Color,
		Permissions: in.Permissions,
		CreatedAt:   nowMillis(),
	}
	if rank.Permissions == nil {
		rank.Permissions = map[models.Permission]bool{}
	}
	err := s.store.Update(func(d *models.Document) error {
		store.NewRankRepo(d).Add(rank)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rank, nil
}

// UpdateRank merges the provided permission map into the existing one rather
// than replacing it, so a partial update cannot silently drop grants.
func (s *AdminService) UpdateRank(id string, in RankInput) (*models.Rank, error) {
	var out *models.Rank
	err := s.store.Update(func(d *models.Document) error {
		rank := store.NewRankRepo(d).ByID(id)
		if rank == nil {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "rank not found", nil)
		}
		if strings.TrimSpace(in.Name) != "" {
			rank.Name = in.Name
		}
		if in.Color != "" {
			rank.Color = in.Color
		}
		if rank.Permissions == nil {
			rank.Permissions = map[models.Permission]bool{}
		}
		for perm, granted := range in.Permissions {
			rank.Permissions[perm] = granted
		}
		out = rank
		return nil
	})
	return out, err
}

// DeleteRank removes the rank and clears it from any profile carrying it.
func (s *AdminService) DeleteRank(id string) error {
	return s.store.Update(func(d *models.Document) error {
		if store.NewRankRepo(d).ByID(id) == nil {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "rank not found", nil)
		}
		store.NewRankRepo(d).Remove(id)
		for _, u := range d.Users {
			if u.Profile.CustomRank != nil && *u.Profile.CustomRank == id {
				u.Profile.CustomRank = nil
			}
		}
		return nil
	})
}

// AssignRank sets or clears a user's single rank slot.
func (s *AdminService) AssignRank(userID string, rankID *string) error {
	return s.store.Update(func(d *models.Document) error {
		u := store.NewUserRepo(d).ByID(userID)
		if u == nil {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "user not found", nil)
		}
		if rankID != nil && store.NewRankRepo(d).ByID(*rankID) == nil {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "rank not found", nil)
		}
		u.Profile.CustomRank = rankID
		return nil
	})
}
