// Package accounts implements the fixed-capacity (3 slots) local account
// store on top of the replication orchestrator. Все ключи пространства
// аккаунтов предваряются идентификатором устройства.
package accounts

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/japakeeper/internal/crypto"
	"github.com/iudanet/japakeeper/internal/models"
	"github.com/iudanet/japakeeper/internal/storage"
	"github.com/iudanet/japakeeper/internal/validation"
)

// Service is the account slot store bound to one device identity.
type Service struct {
	rep      *storage.Replicator
	session  storage.Layer // быстрый указатель активного слота (на время процесса)
	deviceID string
	logger   *slog.Logger

	sessionSecret []byte
	now           func() time.Time
}

// NewService creates an account store namespaced by deviceID. The session
// layer holds only the fast active-slot pointer and never outlives the
// process.
func NewService(rep *storage.Replicator, session storage.Layer, deviceID string, logger *slog.Logger) (*Service, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("device id is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	// Секрет подписи сессии живет столько же, сколько сам указатель
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate session secret: %w", err)
	}

	return &Service{
		rep:           rep,
		session:       session,
		deviceID:      deviceID,
		logger:        logger,
		sessionSecret: secret,
		now:           time.Now,
	}, nil
}

// Ключи пространства аккаунтов

func (s *Service) slotKey(slotID int) string {
	return fmt.Sprintf("%s_slot_%d", s.deviceID, slotID)
}

func (s *Service) accountKey(userID string) string {
	return fmt.Sprintf("%s_account_%s", s.deviceID, userID)
}

func (s *Service) activeKey() string {
	return s.deviceID + "_activeAccountSlot"
}

func (s *Service) logoutKey() string {
	return s.deviceID + "_explicitLogout"
}

// NewAccount builds a ready-to-store account: validates the inputs and
// produces the unique id, salt and salted hash the slot store expects to
// receive already prepared.
func (s *Service) NewAccount(name, dob, password string) (*models.UserAccount, error) {
	if err := validation.ValidateName(name); err != nil {
		return nil, fmt.Errorf("invalid name: %w", err)
	}
	if err := validation.ValidateDOB(dob); err != nil {
		return nil, fmt.Errorf("invalid date of birth: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("invalid password: %w", err)
	}

	salt, err := crypto.GenerateSaltBase64()
	if err != nil {
		return nil, err
	}

	hashed, err := crypto.HashPasswordBase64Salt(password, salt)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	return &models.UserAccount{
		ID:             uuid.New().String(),
		Name:           name,
		DOB:            dob,
		HashedPassword: hashed,
		Salt:           salt,
		CreatedAt:      now,
		UserData: models.UserData{
			TodayDate: now.Format(validation.DOBLayout),
		},
	}, nil
}

// GetSlots always returns exactly models.MaxSlots entries, synthesizing
// empty ones, and opportunistically adopts records stored under legacy
// (pre-namespacing) keys.
func (s *Service) GetSlots(ctx context.Context) ([]models.AccountSlot, error) {
	slots := make([]models.AccountSlot, 0, models.MaxSlots)

	for n := 1; n <= models.MaxSlots; n++ {
		slot, err := s.loadSlot(ctx, n)
		if err != nil {
			return nil, err
		}
		slots = append(slots, *slot)
	}

	return slots, nil
}

// loadSlot читает запись слота; отсутствие записи == пустой слот
func (s *Service) loadSlot(ctx context.Context, slotID int) (*models.AccountSlot, error) {
	raw, err := s.rep.RetrieveAnyValid(ctx, s.slotKey(slotID), validSlotJSON)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("failed to load slot %d: %w", slotID, err)
		}

		// Канонической записи нет — пробуем legacy-ключ
		if migrated := s.adoptLegacySlot(ctx, slotID); migrated != nil {
			return migrated, nil
		}

		return &models.AccountSlot{SlotID: slotID}, nil
	}

	var slot models.AccountSlot
	if err := json.Unmarshal([]byte(raw), &slot); err != nil {
		return &models.AccountSlot{SlotID: slotID}, nil
	}
	slot.SlotID = slotID
	return &slot, nil
}

// CreateAccount places a prepared account (see NewAccount) into the first
// empty slot and makes it active. With all slots populated it fails with
// ErrCapacityExceeded and mutates nothing.
func (s *Service) CreateAccount(ctx context.Context, acc *models.UserAccount) (int, error) {
	if acc == nil || acc.ID == "" || acc.Name == "" || acc.HashedPassword == "" || acc.Salt == "" {
		return 0, fmt.Errorf("account is missing required fields")
	}

	slots, err := s.GetSlots(ctx)
	if err != nil {
		return 0, err
	}

	target := 0
	for _, slot := range slots {
		if slot.Empty() {
			target = slot.SlotID
			break
		}
	}
	if target == 0 {
		return 0, fmt.Errorf("cannot create account: %w", ErrCapacityExceeded)
	}

	acc.SlotID = target
	if err := s.persistAccount(ctx, acc); err != nil {
		return 0, err
	}

	now := s.now()
	slot := &models.AccountSlot{
		SlotID:    target,
		UserID:    acc.ID,
		Name:      acc.Name,
		CreatedAt: &now,
	}
	if err := s.persistSlot(ctx, slot); err != nil {
		return 0, err
	}

	// Новый аккаунт сразу становится активным
	if err := s.SetActiveSlot(ctx, target); err != nil {
		return 0, err
	}

	s.logger.Info("account created", "slot", target, "user_id", acc.ID)
	return target, nil
}

// GetAccountBySlot returns the account occupying the slot, or
// ErrAccountNotFound for an empty slot.
func (s *Service) GetAccountBySlot(ctx context.Context, slotID int) (*models.UserAccount, error) {
	if slotID < 1 || slotID > models.MaxSlots {
		return nil, fmt.Errorf("slot %d: %w", slotID, ErrInvalidSlot)
	}

	slot, err := s.loadSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.Empty() {
		return nil, fmt.Errorf("slot %d is empty: %w", slotID, ErrAccountNotFound)
	}

	return s.loadAccount(ctx, slot.UserID)
}

// loadAccount читает запись аккаунта, при необходимости поднимая ее
// с legacy-ключа
func (s *Service) loadAccount(ctx context.Context, userID string) (*models.UserAccount, error) {
	raw, err := s.rep.RetrieveAnyValid(ctx, s.accountKey(userID), validAccountJSON)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("failed to load account: %w", err)
		}

		if adopted := s.adoptLegacyAccount(ctx, userID); adopted != nil {
			return adopted, nil
		}

		return nil, fmt.Errorf("account %s: %w", userID, ErrAccountNotFound)
	}

	var acc models.UserAccount
	if err := json.Unmarshal([]byte(raw), &acc); err != nil {
		return nil, fmt.Errorf("account %s: %w", userID, ErrAccountNotFound)
	}
	return &acc, nil
}

// SetActiveSlot enforces the at-most-one-active invariant: it clears
// IsActive on every other populated slot first, then activates the target,
// stamps LastLogin and drops a signed fast pointer into the session layer.
func (s *Service) SetActiveSlot(ctx context.Context, slotID int) error {
	if slotID < 1 || slotID > models.MaxSlots {
		return fmt.Errorf("slot %d: %w", slotID, ErrInvalidSlot)
	}

	slots, err := s.GetSlots(ctx)
	if err != nil {
		return err
	}

	var target *models.AccountSlot
	for i := range slots {
		if slots[i].SlotID == slotID {
			target = &slots[i]
		}
	}
	if target == nil || target.Empty() {
		return fmt.Errorf("slot %d is empty: %w", slotID, ErrAccountNotFound)
	}

	// 1. Снимаем активность со всех остальных заполненных слотов
	for i := range slots {
		slot := &slots[i]
		if slot.SlotID == slotID || slot.Empty() || !slot.IsActive {
			continue
		}
		slot.IsActive = false
		if err := s.persistSlot(ctx, slot); err != nil {
			return err
		}
	}

	// 2. Активируем целевой слот
	now := s.now()
	target.IsActive = true
	target.LastLogin = &now
	if err := s.persistSlot(ctx, target); err != nil {
		return err
	}

	// 3. Обновляем LastLogin в записи аккаунта
	if acc, err := s.loadAccount(ctx, target.UserID); err == nil {
		acc.LastLogin = &now
		if err := s.persistAccount(ctx, acc); err != nil {
			return err
		}
	}

	// 4. Быстрый указатель в сессионном слое
	token, err := s.newSessionToken(slotID, target.UserID)
	if err != nil {
		return err
	}
	if err := s.session.Store(ctx, s.activeKey(), token); err != nil {
		// Указатель — только ускорение; долговечный признак уже записан
		s.logger.Warn("failed to store session pointer", "error", err)
	}

	// Вход снимает отметку явного выхода
	s.rep.DeleteEverywhere(ctx, s.logoutKey())

	return nil
}

// GetActiveAccount resolves the active account: the fast session pointer
// first, then a scan for the IsActive flag, then the most recently logged-in
// populated slot. The last step is restart recovery only and is suppressed
// after an explicit logout. It never fails hard: no resolvable account means
// (nil, nil).
func (s *Service) GetActiveAccount(ctx context.Context) (*models.UserAccount, error) {
	// 1. Быстрый указатель
	if token, err := s.session.Retrieve(ctx, s.activeKey()); err == nil {
		if claims, err := s.parseSessionToken(token); err == nil {
			if acc, err := s.GetAccountBySlot(ctx, claims.SlotID); err == nil {
				return acc, nil
			}
		}
	}

	slots, err := s.GetSlots(ctx)
	if err != nil {
		return nil, err
	}

	// 2. Слот с признаком активности
	for _, slot := range slots {
		if !slot.Empty() && slot.IsActive {
			if acc, err := s.GetAccountBySlot(ctx, slot.SlotID); err == nil {
				return acc, nil
			}
		}
	}

	// 3. Последний, в который входили. Это восстановление после перезапуска,
	// а не обход выхода: явный logout оставляет долговечную отметку,
	// и пока она на месте, аккаунт по LastLogin не воскресает
	if _, err := s.rep.RetrieveAny(ctx, s.logoutKey()); err == nil {
		return nil, nil
	}

	var latest *models.AccountSlot
	for i := range slots {
		slot := &slots[i]
		if slot.Empty() || slot.LastLogin == nil {
			continue
		}
		if latest == nil || slot.LastLogin.After(*latest.LastLogin) {
			latest = slot
		}
	}
	if latest != nil {
		if acc, err := s.GetAccountBySlot(ctx, latest.SlotID); err == nil {
			return acc, nil
		}
	}

	return nil, nil
}

// Authenticate verifies the candidate password for the slot's account and,
// on success, makes the slot active. Credential mismatch and missing account
// are distinct errors.
func (s *Service) Authenticate(ctx context.Context, slotID int, password string) (*models.UserAccount, error) {
	acc, err := s.GetAccountBySlot(ctx, slotID)
	if err != nil {
		return nil, err
	}

	ok, err := crypto.VerifyPassword(password, acc.Salt, acc.HashedPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidPassword
	}

	if err := s.SetActiveSlot(ctx, slotID); err != nil {
		return nil, err
	}
	return acc, nil
}

// ReplaceAccountInSlot destructively overwrites the slot with a prepared
// account. Used when capacity is exhausted and the user explicitly chose to
// replace; no soft-delete.
func (s *Service) ReplaceAccountInSlot(ctx context.Context, acc *models.UserAccount, slotID int) error {
	if slotID < 1 || slotID > models.MaxSlots {
		return fmt.Errorf("slot %d: %w", slotID, ErrInvalidSlot)
	}
	if acc == nil || acc.ID == "" || acc.Name == "" || acc.HashedPassword == "" {
		return fmt.Errorf("account is missing required fields")
	}

	// Сносим прежнего владельца слота
	if old, err := s.GetAccountBySlot(ctx, slotID); err == nil && old.ID != acc.ID {
		s.rep.DeleteEverywhere(ctx, s.accountKey(old.ID))
	}

	acc.SlotID = slotID
	if err := s.persistAccount(ctx, acc); err != nil {
		return err
	}

	now := s.now()
	slot := &models.AccountSlot{
		SlotID:    slotID,
		UserID:    acc.ID,
		Name:      acc.Name,
		CreatedAt: &now,
	}
	if err := s.persistSlot(ctx, slot); err != nil {
		return err
	}

	s.logger.Info("account replaced", "slot", slotID, "user_id", acc.ID)
	return s.SetActiveSlot(ctx, slotID)
}

// ClearSlot resets the slot to empty and removes its account record.
func (s *Service) ClearSlot(ctx context.Context, slotID int) error {
	if slotID < 1 || slotID > models.MaxSlots {
		return fmt.Errorf("slot %d: %w", slotID, ErrInvalidSlot)
	}

	slot, err := s.loadSlot(ctx, slotID)
	if err != nil {
		return err
	}

	if !slot.Empty() {
		s.rep.DeleteEverywhere(ctx, s.accountKey(slot.UserID))
	}

	if err := s.persistSlot(ctx, &models.AccountSlot{SlotID: slotID}); err != nil {
		return err
	}

	// Если указатель сессии смотрел на этот слот — сбрасываем
	if token, err := s.session.Retrieve(ctx, s.activeKey()); err == nil {
		if claims, err := s.parseSessionToken(token); err == nil && claims.SlotID == slotID {
			return s.ClearActiveSession(ctx)
		}
	}
	return nil
}

// ClearActiveSession implements logout semantics: the "which slot is active"
// pointer is cleared and a durable logged-out marker is written, but the
// account data itself is never touched.
func (s *Service) ClearActiveSession(ctx context.Context) error {
	if err := s.session.Delete(ctx, s.activeKey()); err != nil {
		return fmt.Errorf("failed to clear session pointer: %w", err)
	}

	// Снимаем признак активности и с долговечных записей слотов
	slots, err := s.GetSlots(ctx)
	if err != nil {
		return err
	}
	for i := range slots {
		slot := &slots[i]
		if slot.Empty() || !slot.IsActive {
			continue
		}
		slot.IsActive = false
		if err := s.persistSlot(ctx, slot); err != nil {
			return err
		}
	}

	// Долговечная отметка выхода: без нее GetActiveAccount после перезапуска
	// вернул бы аккаунт по LastLogin, отменяя явный logout
	if _, err := s.rep.StoreEverywhere(ctx, s.logoutKey(), s.now().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to record logout: %w", err)
	}
	return nil
}

// RecordChant adds repetitions to the active account's counters, rolling the
// today counter over on date change.
func (s *Service) RecordChant(ctx context.Context, count int64) (*models.UserAccount, error) {
	if count <= 0 {
		return nil, fmt.Errorf("count must be positive")
	}

	acc, err := s.GetActiveAccount(ctx)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, ErrAccountNotFound
	}

	now := s.now()
	today := now.Format(validation.DOBLayout)

	if acc.UserData.TodayDate != today {
		// Новый день: вчерашняя практика продлевает серию
		yesterday := now.AddDate(0, 0, -1).Format(validation.DOBLayout)
		if acc.UserData.TodayDate == yesterday && acc.UserData.TodayCount > 0 {
			acc.UserData.Streak++
		} else {
			acc.UserData.Streak = 1
		}
		acc.UserData.TodayCount = 0
		acc.UserData.TodayDate = today
	} else if acc.UserData.Streak == 0 {
		acc.UserData.Streak = 1
	}

	acc.UserData.TodayCount += count
	acc.UserData.LifetimeCount += count
	acc.UserData.LastChantAt = now.Unix()

	if err := s.persistAccount(ctx, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

func (s *Service) persistAccount(ctx context.Context, acc *models.UserAccount) error {
	raw, err := json.Marshal(acc)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}
	if _, err := s.rep.StoreEverywhere(ctx, s.accountKey(acc.ID), string(raw)); err != nil {
		return fmt.Errorf("failed to persist account: %w", err)
	}
	return nil
}

func (s *Service) persistSlot(ctx context.Context, slot *models.AccountSlot) error {
	raw, err := json.Marshal(slot)
	if err != nil {
		return fmt.Errorf("failed to marshal slot: %w", err)
	}
	if _, err := s.rep.StoreEverywhere(ctx, s.slotKey(slot.SlotID), string(raw)); err != nil {
		return fmt.Errorf("failed to persist slot: %w", err)
	}
	return nil
}

// Структурная валидация для RetrieveAnyValid: расшифровка обратима для
// любого входа, поэтому годность записи проверяется формой JSON

func validSlotJSON(raw string) bool {
	var slot models.AccountSlot
	return json.Unmarshal([]byte(raw), &slot) == nil && slot.SlotID >= 0
}

func validAccountJSON(raw string) bool {
	var acc models.UserAccount
	return json.Unmarshal([]byte(raw), &acc) == nil && acc.ID != ""
}
