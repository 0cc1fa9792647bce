package services

import (
	"net/http"
	"strings"

	"forum-server/internal/models"
	"forum-server/internal/store"
	"forum-server/internal/utils"
)

type UserService struct {
	store *store.Store
}

func NewUserService(st *store.Store) *UserService {
	return &UserService{store: st}
}

type MeResponse struct {
	UserPayload
	Profile models.Profile `json:"profile"`
	Banned  bool           `json:"banned"`
}

type SecurityResponse struct {
	TwoFaEnabled bool   `json:"twoFaEnabled"`
	Email        string `json:"email"`
	LastIP       string `json:"lastIp"`
	CreatedAt    int64  `json:"createdAt"`
}

// PublicProfile deliberately omits email, IPs and security state.
type PublicProfile struct {
	ID         string         `json:"id"`
	UID        int            `json:"uid"`
	Username   string         `json:"username"`
	Role       string         `json:"role"`
	StaffRole  *string        `json:"staffRole"`
	Roles      []string       `json:"roles"`
	Profile    models.Profile `json:"profile"`
	Rank       *models.Rank   `json:"rank"`
	PostCount  int            `json:"postCount"`
	ThreadsCnt int            `json:"threadCount"`
	CreatedAt  int64          `json:"createdAt"`
	Banned     bool           `json:"banned"`
}

func (s *UserService) Me(userID string) (*MeResponse, error) {
	now := nowMillis()
	var resp *MeResponse
	err := s.store.Update(func(d *models.Document) error {
		u := store.NewUserRepo(d).ByID(userID)
		if u == nil {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "user not found", nil)
		}
		clearExpiredBan(u, now)
		resp = &MeResponse{UserPayload: userPayload(u), Profile: u.Profile, Banned: u.Banned}
		return nil
	})
	return resp, err
}

func (s *UserService) Security(userID string) (*SecurityResponse, error) {
	var resp *SecurityResponse
	err := s.store.View(func(d *models.Document) error {
		u := store.NewUserRepo(d).ByID(userID)
		if u == nil {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "user not found", nil)
		}
		resp = &SecurityResponse{
			TwoFaEnabled: u.TwoFa.Enabled,
			Email:        u.Email,
			LastIP:       u.LastIP,
			CreatedAt:    u.CreatedAt,
		}
		return nil
	})
	return resp, err
}

// Profile resolves a public profile by username, case-insensitively.
func (s *UserService) Profile(username string) (*PublicProfile, error) {
	var resp *PublicProfile
	err := s.store.View(func(d *models.Document) error {
		u := store.NewUserRepo(d).ByUsername(username)
		if u == nil {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "user not found", nil)
		}
		roles := u.Roles
		if roles == nil {
			roles = []string{}
		}
		resp = &PublicProfile{
			ID:        u.ID,
			UID:       u.UID,
			Username:  u.Username,
			Role:      u.Role,
			StaffRole: u.StaffRole,
			Roles:     roles,
			Profile:   u.Profile,
			Rank:      store.NewRankRepo(d).ForUser(u),
			CreatedAt: u.CreatedAt,
			Banned:    u.Banned,
		}
		for _, t := range d.Threads {
			if t.Author() == u.ID {
				resp.ThreadsCnt++
			}
		}
		for _, p := range d.Posts {
			if p.AuthorID == u.ID {
				resp.PostCount++
			}
		}
		return nil
	})
	return resp, err
}

type ProfileUpdate struct {
	Pfp        *string `json:"pfp"`
	Banner     *string `json:"banner"`
	Background *string `json:"background"`
	Bio        *string `json:"bio"`
	Signature  *string `json:"signature"`
}

const profileFieldMax = 4096

// UpdateProfile applies only the fields present in the request. An explicit
// empty string clears a field.
func (s *UserService) UpdateProfile(userID string, in ProfileUpdate) (*models.Profile, error) {
	for _, v := range []*string{in.Pfp, in.Banner, in.Background, in.Bio, in.Signature} {
		if v != nil && len(*v) > profileFieldMax {
			return nil, utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "profile field too long", nil)
		}
	}

	var out *models.Profile
	err := s.store.Update(func(d *models.Document) error {
		u := store.NewUserRepo(d).ByID(userID)
		if u == nil {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "user not found", nil)
		}
		applyField(&u.Profile.Pfp, in.Pfp)
		applyField(&u.Profile.Banner, in.Banner)
		applyField(&u.Profile.Background, in.Background)
		applyField(&u.Profile.Bio, in.Bio)
		applyField(&u.Profile.Signature, in.Signature)
		copied := u.Profile
		out = &copied
		return nil
	})
	return out, err
}

func applyField(dst **string, src *string) {
	if src == nil {
		return
	}
	if strings.TrimSpace(*src) == "" {
		*dst = nil
		return
	}
	*dst = src
}
