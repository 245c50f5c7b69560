package accounts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iudanet/japakeeper/internal/models"
)

// Legacy-ключи времен до неймспейсинга по устройству. Найденные записи
// переводятся в каноническую форму, legacy-ключ после этого удаляется.

func legacySlotKey(slotID int) string {
	return fmt.Sprintf("accountSlot_%d", slotID)
}

func legacyAccountKey(userID string) string {
	return "account_" + userID
}

// legacySlot — форма записи слота в старых версиях: плоские поля,
// таймстемпы в unix-секундах
type legacySlot struct {
	Slot      int    `json:"slot"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	CreatedAt int64  `json:"createdAt"`
	LastLogin int64  `json:"lastLogin"`
	Active    bool   `json:"active"`
}

// adoptLegacySlot переносит запись слота со старого ключа на канонический.
// Возвращает nil, если legacy-записи нет или она нечитаема.
func (s *Service) adoptLegacySlot(ctx context.Context, slotID int) *models.AccountSlot {
	raw, err := s.rep.RetrieveAnyValid(ctx, legacySlotKey(slotID), validLegacySlotJSON)
	if err != nil {
		return nil
	}

	var old legacySlot
	if err := json.Unmarshal([]byte(raw), &old); err != nil || old.UserID == "" {
		return nil
	}

	slot := &models.AccountSlot{
		SlotID:   slotID,
		UserID:   old.UserID,
		Name:     old.UserName,
		IsActive: old.Active,
	}
	if old.CreatedAt > 0 {
		t := time.Unix(old.CreatedAt, 0)
		slot.CreatedAt = &t
	}
	if old.LastLogin > 0 {
		t := time.Unix(old.LastLogin, 0)
		slot.LastLogin = &t
	}

	if err := s.persistSlot(ctx, slot); err != nil {
		s.logger.Warn("failed to migrate legacy slot", "slot", slotID, "error", err)
		return nil
	}
	s.rep.DeleteEverywhere(ctx, legacySlotKey(slotID))

	s.logger.Info("migrated legacy slot record", "slot", slotID, "user_id", old.UserID)
	return slot
}

// adoptLegacyAccount переносит запись аккаунта со старого ключа.
// Старые записи уже имеют каноническую форму UserAccount, отличался
// только ключ.
func (s *Service) adoptLegacyAccount(ctx context.Context, userID string) *models.UserAccount {
	raw, err := s.rep.RetrieveAnyValid(ctx, legacyAccountKey(userID), validAccountJSON)
	if err != nil {
		return nil
	}

	var acc models.UserAccount
	if err := json.Unmarshal([]byte(raw), &acc); err != nil || acc.ID == "" {
		return nil
	}

	if err := s.persistAccount(ctx, &acc); err != nil {
		s.logger.Warn("failed to migrate legacy account", "user_id", userID, "error", err)
		return nil
	}
	s.rep.DeleteEverywhere(ctx, legacyAccountKey(userID))

	s.logger.Info("migrated legacy account record", "user_id", userID)
	return &acc
}

func validLegacySlotJSON(raw string) bool {
	var old legacySlot
	return json.Unmarshal([]byte(raw), &old) == nil && old.UserID != ""
}
