package services

import (
	"crypto/rand"
	"log/slog"
	"math/big"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"

	"forum-server/internal/models"
	"forum-server/internal/store"
	"forum-server/internal/utils"
)

const (
	inviteKeyLength   = 16
	inviteKeyAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	staffBatchMax = 100
	userBatchMax  = 25
)

type InviteService struct {
	store *store.Store
	log   *slog.Logger
}

func NewInviteService(st *store.Store, log *slog.Logger) *InviteService {
	return &InviteService{store: st, log: log}
}

// KeyPayload is an invite key as shown to its generator.
type KeyPayload struct {
	ID          string  `json:"id"`
	Key         string  `json:"key"`
	GeneratedAt int64   `json:"generatedAt"`
	Used        bool    `json:"used"`
	UsedAt      *int64  `json:"usedAt"`
	Revoked     bool    `json:"revoked"`
	RevokedAt   *int64  `json:"revokedAt"`
	UsedBy      *string `json:"usedByUsername,omitempty"`
}

type KeyStats struct {
	Today int `json:"today"`
	Month int `json:"month"`
	Total int `json:"total"`
}

type MyKeysResponse struct {
	CanGenerate bool         `json:"canGenerate"`
	Keys        []KeyPayload `json:"keys"`
	Stats       KeyStats     `json:"stats"`
}

func generateInviteKey() (string, error) {
	max := big.NewInt(int64(len(inviteKeyAlphabet)))
	out := make([]byte, inviteKeyLength)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = inviteKeyAlphabet[n.Int64()]
	}
	return string(out), nil
}

// Generate mints count keys attributed to the actor. Staff may mint up to
// 100 per call; regular users need the invite-generation permission and are
// capped at 25.
func (s *InviteService) Generate(actor Actor, count int) ([]KeyPayload, error) {
	if count < 1 {
		count = 1
	}
	limit := userBatchMax
	if actor.IsStaff() {
		limit = staffBatchMax
	}
	if count > limit {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "requested key count exceeds the allowed batch size", nil)
	}

	now := nowMillis()
	var minted []KeyPayload
	err := s.store.Update(func(d *models.Document) error {
		if !actor.IsStaff() {
			u := store.NewUserRepo(d).ByID(actor.ID)
			if u == nil {
				return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "user not found", nil)
			}
			rank := store.NewRankRepo(d).ForUser(u)
			if !HasPermission(u, rank, models.PermGenerateInvites) {
				return utils.NewAppError(http.StatusForbidden, utils.CodeForbidden, "you do not have permission to generate invitation keys", nil)
			}
		}

		keys := store.NewKeyRepo(d)
		for i := 0; i < count; i++ {
			raw, err := generateInviteKey()
			if err != nil {
				return utils.NewAppError(http.StatusInternalServerError, utils.CodeInternal, "could not generate key", nil)
			}
			k := &models.InviteKey{
				ID:          uuid.NewString(),
				Key:         raw,
				GeneratedBy: actor.ID,
				GeneratedAt: now,
			}
			keys.Add(k)
			minted = append(minted, keyPayload(k, nil))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("invite keys generated", "count", count, "by", actor.ID)
	return minted, nil
}

func keyPayload(k *models.InviteKey, usedByUsername *string) KeyPayload {
	return KeyPayload{
		ID:          k.ID,
		Key:         k.Key,
		GeneratedAt: k.GeneratedAt,
		Used:        k.UsedBy != nil,
		UsedAt:      k.UsedAt,
		Revoked:     k.Revoked,
		RevokedAt:   k.RevokedAt,
		UsedBy:      usedByUsername,
	}
}

// ListMine returns the actor's keys newest first with counters for keys
// minted today, this month, and all time, plus whether the actor may mint
// more.
func (s *InviteService) ListMine(actor Actor) (*MyKeysResponse, error) {
	now := time.UnixMilli(nowMillis())
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).UnixMilli()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).UnixMilli()

	resp := &MyKeysResponse{Keys: []KeyPayload{}}
	err := s.store.View(func(d *models.Document) error {
		users := store.NewUserRepo(d)
		if u := users.ByID(actor.ID); u != nil {
			rank := store.NewRankRepo(d).ForUser(u)
			resp.CanGenerate = HasPermission(u, rank, models.PermGenerateInvites)
		}
		for _, k := range store.NewKeyRepo(d).ByGenerator(actor.ID) {
			var usedBy *string
			if k.UsedBy != nil {
				if u := users.ByID(*k.UsedBy); u != nil {
					usedBy = strPtr(u.Username)
				}
			}
			resp.Stats.Total++
			if k.GeneratedAt >= monthStart {
				resp.Stats.Month++
			}
			if k.GeneratedAt >= dayStart {
				resp.Stats.Today++
			}
			resp.Keys = append(resp.Keys, keyPayload(k, usedBy))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(resp.Keys, func(i, j int) bool {
		return resp.Keys[i].GeneratedAt > resp.Keys[j].GeneratedAt
	})
	return resp, nil
}

// AdminKeyPayload adds generator attribution for the staff key browser.
type AdminKeyPayload struct {
	KeyPayload
	GeneratedBy string `json:"generatedBy"`
	Generator   string `json:"generatorUsername"`
}

func (s *InviteService) ListAll() ([]AdminKeyPayload, error) {
	out := []AdminKeyPayload{}
	err := s.store.View(func(d *models.Document) error {
		users := store.NewUserRepo(d)
		for _, k := range store.NewKeyRepo(d).All() {
			var usedBy *string
			if k.UsedBy != nil {
				if u := users.ByID(*k.UsedBy); u != nil {
					usedBy = strPtr(u.Username)
				}
			}
			generator := "system"
			if g := users.ByID(k.GeneratedBy); g != nil {
				generator = g.Username
			}
			out = append(out, AdminKeyPayload{
				KeyPayload:  keyPayload(k, usedBy),
				GeneratedBy: k.GeneratedBy,
				Generator:   generator,
			})
		}
		return nil
	})
	return out, err
}

// Redeem consumes a fresh key for the user and clears any access revocation.
// The key is consumed exactly as during registration.
func (s *InviteService) Redeem(userID, rawKey string) error {
	if !utils.ValidInviteKey(rawKey) {
		return utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "invitation key must be alphanumeric and at least 4 characters", nil)
	}
	now := nowMillis()
	return s.store.Update(func(d *models.Document) error {
		u := store.NewUserRepo(d).ByID(userID)
		if u == nil {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "user not found", nil)
		}
		key := store.NewKeyRepo(d).Redeemable(rawKey)
		if key == nil {
			return utils.NewAppError(http.StatusBadRequest, utils.CodeConflict, "invitation key not found or already used", nil)
		}
		key.UsedBy = &u.ID
		key.UsedAt = int64Ptr(now)
		u.AccessRevoked = false
		u.AccessRevokedAt = nil
		u.InviteKeyID = &key.ID
		return nil
	})
}

// Revoke marks a key revoked. Revoking a consumed key also revokes the
// consumer's forum access; they must redeem a fresh key to get it back.
func (s *InviteService) Revoke(keyID string) error {
	now := nowMillis()
	return s.store.Update(func(d *models.Document) error {
		k := store.NewKeyRepo(d).ByID(keyID)
		if k == nil {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "key not found", nil)
		}
		if k.UsedBy != nil {
			if u := store.NewUserRepo(d).ByID(*k.UsedBy); u != nil {
				u.AccessRevoked = true
				u.AccessRevokedAt = int64Ptr(now)
			}
		}
		k.Revoked = true
		k.RevokedAt = int64Ptr(now)
		return nil
	})
}

// Delete removes an unused key entirely.
func (s *InviteService) Delete(keyID string) error {
	return s.store.Update(func(d *models.Document) error {
		k := store.NewKeyRepo(d).ByID(keyID)
		if k == nil {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "key not found", nil)
		}
		if k.UsedBy != nil {
			return utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "key already used", nil)
		}
		store.NewKeyRepo(d).Remove(keyID)
		return nil
	})
}
