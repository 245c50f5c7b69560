package accounts

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/japakeeper/internal/models"
	"github.com/iudanet/japakeeper/internal/storage"
	"github.com/iudanet/japakeeper/internal/storage/memory"
)

const testDeviceID = "device_1700000000000_a1b2c3d4_host01"

func newTestService(t *testing.T) (*Service, *storage.Replicator) {
	t.Helper()

	rep, err := storage.NewReplicator(storage.Config{
		Layers: []storage.Layer{memory.New(), memory.New()},
	}, nil)
	require.NoError(t, err)

	svc, err := NewService(rep, memory.New(), testDeviceID, nil)
	require.NoError(t, err)

	return svc, rep
}

// mustCreate подготавливает и размещает аккаунт, возвращая его вместе со слотом
func mustCreate(t *testing.T, svc *Service, name, password string) (*models.UserAccount, int) {
	t.Helper()

	acc, err := svc.NewAccount(name, "2000-01-01", password)
	require.NoError(t, err)

	slotID, err := svc.CreateAccount(context.Background(), acc)
	require.NoError(t, err)

	return acc, slotID
}

func TestNewServiceRequiresDeviceID(t *testing.T) {
	rep, err := storage.NewReplicator(storage.Config{
		Layers: []storage.Layer{memory.New()},
	}, nil)
	require.NoError(t, err)

	_, err = NewService(rep, memory.New(), "", nil)
	assert.Error(t, err)
}

func TestNewAccount(t *testing.T) {
	svc, _ := newTestService(t)

	acc, err := svc.NewAccount("Asha", "2000-01-01", "secret1")
	require.NoError(t, err)

	assert.NotEmpty(t, acc.ID)
	assert.Equal(t, "Asha", acc.Name)
	assert.Equal(t, "2000-01-01", acc.DOB)
	assert.NotEmpty(t, acc.Salt)

	// Пароль хранится только в виде salted-хеша
	assert.NotEmpty(t, acc.HashedPassword)
	assert.NotEqual(t, "secret1", acc.HashedPassword)

	// Счетчики начинаются с нуля, сегодняшняя дата выставлена
	assert.Zero(t, acc.UserData.LifetimeCount)
	assert.Zero(t, acc.UserData.TodayCount)
	assert.NotEmpty(t, acc.UserData.TodayDate)
}

// Дата рождения опциональна
func TestNewAccountWithoutDOB(t *testing.T) {
	svc, _ := newTestService(t)

	acc, err := svc.NewAccount("Asha", "", "secret1")
	require.NoError(t, err)
	assert.Empty(t, acc.DOB)
}

func TestNewAccountValidation(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name     string
		userName string
		dob      string
		password string
	}{
		{name: "empty name", userName: "", dob: "2000-01-01", password: "secret1"},
		{name: "bad dob format", userName: "Asha", dob: "01.01.2000", password: "secret1"},
		{name: "future dob", userName: "Asha", dob: "2999-01-01", password: "secret1"},
		{name: "short password", userName: "Asha", dob: "2000-01-01", password: "12345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.NewAccount(tt.userName, tt.dob, tt.password)
			assert.Error(t, err)
		})
	}
}

func TestGetSlotsAllEmpty(t *testing.T) {
	svc, _ := newTestService(t)

	slots, err := svc.GetSlots(context.Background())
	require.NoError(t, err)
	require.Len(t, slots, models.MaxSlots)

	for i, slot := range slots {
		assert.Equal(t, i+1, slot.SlotID)
		assert.True(t, slot.Empty())
	}
}

func TestCreateAccountLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	acc, slotID := mustCreate(t, svc, "Asha", "secret1")
	assert.Equal(t, 1, slotID)

	// Новый аккаунт сразу активен
	active, err := svc.GetActiveAccount(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, acc.ID, active.ID)
	assert.Equal(t, "Asha", active.Name)

	// Слот заполнен и помечен активным
	slots, err := svc.GetSlots(ctx)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, slots[0].UserID)
	assert.True(t, slots[0].IsActive)
	assert.True(t, slots[1].Empty())
}

// Четвертый аккаунт не помещается; существующие слоты не трогаются
func TestCreateAccountCapacityExceeded(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	mustCreate(t, svc, "First", "secret1")
	mustCreate(t, svc, "Second", "secret2")
	mustCreate(t, svc, "Third", "secret3")

	extra, err := svc.NewAccount("Fourth", "2000-01-01", "secret4")
	require.NoError(t, err)

	_, err = svc.CreateAccount(ctx, extra)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	// Состояние слотов не изменилось
	slots, err := svc.GetSlots(ctx)
	require.NoError(t, err)
	assert.Equal(t, "First", slots[0].Name)
	assert.Equal(t, "Second", slots[1].Name)
	assert.Equal(t, "Third", slots[2].Name)
}

func TestGetAccountBySlot(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	acc, slotID := mustCreate(t, svc, "Asha", "secret1")

	got, err := svc.GetAccountBySlot(ctx, slotID)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)

	// Пустой слот
	_, err = svc.GetAccountBySlot(ctx, 2)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	// Номер слота вне диапазона
	_, err = svc.GetAccountBySlot(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidSlot)
	_, err = svc.GetAccountBySlot(ctx, models.MaxSlots+1)
	assert.ErrorIs(t, err, ErrInvalidSlot)
}

// Инвариант: не более одного активного слота
func TestSetActiveSlotSingleActive(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	mustCreate(t, svc, "First", "secret1")
	mustCreate(t, svc, "Second", "secret2")

	// Последний созданный активен; переключаемся обратно на первый
	require.NoError(t, svc.SetActiveSlot(ctx, 1))

	slots, err := svc.GetSlots(ctx)
	require.NoError(t, err)

	activeCount := 0
	for _, slot := range slots {
		if slot.IsActive {
			activeCount++
			assert.Equal(t, 1, slot.SlotID)
		}
	}
	assert.Equal(t, 1, activeCount)
}

func TestSetActiveSlotEmpty(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.SetActiveSlot(context.Background(), 2)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	acc, slotID := mustCreate(t, svc, "Asha", "secret1")
	mustCreate(t, svc, "Other", "secret2")

	// Неверный пароль
	_, err := svc.Authenticate(ctx, slotID, "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	// Верный пароль активирует слот
	got, err := svc.Authenticate(ctx, slotID, "secret1")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)

	active, err := svc.GetActiveAccount(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, acc.ID, active.ID)

	// Пустой слот — отсутствие аккаунта, не ошибка пароля
	_, err = svc.Authenticate(ctx, 3, "secret1")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestReplaceAccountInSlot(t *testing.T) {
	ctx := context.Background()
	svc, rep := newTestService(t)

	old, slotID := mustCreate(t, svc, "Old", "secret1")

	replacement, err := svc.NewAccount("New", "2000-01-01", "secret2")
	require.NoError(t, err)
	require.NoError(t, svc.ReplaceAccountInSlot(ctx, replacement, slotID))

	// Слот занят новым аккаунтом, он же активен
	got, err := svc.GetAccountBySlot(ctx, slotID)
	require.NoError(t, err)
	assert.Equal(t, replacement.ID, got.ID)

	// Запись старого аккаунта удалена из всех слоев
	_, err = rep.RetrieveAny(ctx, svc.accountKey(old.ID))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestClearSlot(t *testing.T) {
	ctx := context.Background()
	svc, rep := newTestService(t)

	acc, slotID := mustCreate(t, svc, "Asha", "secret1")
	require.NoError(t, svc.ClearSlot(ctx, slotID))

	// Слот пуст, записи аккаунта нет
	slots, err := svc.GetSlots(ctx)
	require.NoError(t, err)
	assert.True(t, slots[slotID-1].Empty())

	_, err = rep.RetrieveAny(ctx, svc.accountKey(acc.ID))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Активного аккаунта больше нет
	active, err := svc.GetActiveAccount(ctx)
	require.NoError(t, err)
	assert.Nil(t, active)
}

// Logout стирает только указатель сессии, данные аккаунта остаются
func TestClearActiveSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	acc, slotID := mustCreate(t, svc, "Asha", "secret1")
	require.NoError(t, svc.ClearActiveSession(ctx))

	slots, err := svc.GetSlots(ctx)
	require.NoError(t, err)
	assert.False(t, slots[slotID-1].IsActive)

	// Активного аккаунта больше нет, несмотря на сохранившийся LastLogin
	active, err := svc.GetActiveAccount(ctx)
	require.NoError(t, err)
	assert.Nil(t, active)

	// Аккаунт цел и доступен по слоту
	got, err := svc.GetAccountBySlot(ctx, slotID)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)
}

// Выход переживает перезапуск: восстановление по LastLogin не отменяет
// явный logout, а повторный вход снимает отметку выхода
func TestLogoutPersistsAcrossRestart(t *testing.T) {
	ctx := context.Background()
	svc, rep := newTestService(t)

	acc, slotID := mustCreate(t, svc, "Asha", "secret1")
	require.NoError(t, svc.ClearActiveSession(ctx))

	// Новый процесс над теми же слоями
	restarted, err := NewService(rep, memory.New(), testDeviceID, nil)
	require.NoError(t, err)

	active, err := restarted.GetActiveAccount(ctx)
	require.NoError(t, err)
	assert.Nil(t, active)

	// Вход возвращает аккаунт и в этом процессе, и в следующем
	_, err = restarted.Authenticate(ctx, slotID, "secret1")
	require.NoError(t, err)

	again, err := NewService(rep, memory.New(), testDeviceID, nil)
	require.NoError(t, err)

	active, err = again.GetActiveAccount(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, acc.ID, active.ID)
}

// Без отметки выхода потерянный признак активности восстанавливается
// по последнему входу
func TestActiveAccountRecoveredByLastLogin(t *testing.T) {
	ctx := context.Background()
	svc, rep := newTestService(t)

	acc, slotID := mustCreate(t, svc, "Asha", "secret1")

	// Симулируем потерю признака активности без явного выхода
	slot, err := svc.loadSlot(ctx, slotID)
	require.NoError(t, err)
	slot.IsActive = false
	require.NoError(t, svc.persistSlot(ctx, slot))

	// Новый процесс: указателя сессии нет, активного флага нет
	restarted, err := NewService(rep, memory.New(), testDeviceID, nil)
	require.NoError(t, err)

	active, err := restarted.GetActiveAccount(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, acc.ID, active.ID)
}

func TestRecordChant(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	// Фиксируем «сегодня», чтобы управлять сменой дат
	day1 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return day1 }

	mustCreate(t, svc, "Asha", "secret1")

	acc, err := svc.RecordChant(ctx, 16)
	require.NoError(t, err)
	assert.Equal(t, int64(16), acc.UserData.TodayCount)
	assert.Equal(t, int64(16), acc.UserData.LifetimeCount)
	assert.Equal(t, 1, acc.UserData.Streak)

	// Еще раз в тот же день: серия не растет
	acc, err = svc.RecordChant(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(20), acc.UserData.TodayCount)
	assert.Equal(t, int64(20), acc.UserData.LifetimeCount)
	assert.Equal(t, 1, acc.UserData.Streak)

	// Следующий день: дневной счетчик обнуляется, серия растет
	svc.now = func() time.Time { return day1.AddDate(0, 0, 1) }
	acc, err = svc.RecordChant(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, int64(8), acc.UserData.TodayCount)
	assert.Equal(t, int64(28), acc.UserData.LifetimeCount)
	assert.Equal(t, 2, acc.UserData.Streak)

	// Пропуск дня обрывает серию
	svc.now = func() time.Time { return day1.AddDate(0, 0, 3) }
	acc, err = svc.RecordChant(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), acc.UserData.TodayCount)
	assert.Equal(t, int64(29), acc.UserData.LifetimeCount)
	assert.Equal(t, 1, acc.UserData.Streak)
}

func TestRecordChantErrors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	// Нет активного аккаунта
	_, err := svc.RecordChant(ctx, 1)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	mustCreate(t, svc, "Asha", "secret1")

	// Неположительное количество
	_, err = svc.RecordChant(ctx, 0)
	assert.Error(t, err)
	_, err = svc.RecordChant(ctx, -5)
	assert.Error(t, err)
}

// Счетчики переживают «перезапуск»: новый сервис над теми же слоями
func TestCountersSurviveRestart(t *testing.T) {
	ctx := context.Background()
	svc, rep := newTestService(t)

	acc, slotID := mustCreate(t, svc, "Asha", "secret1")
	_, err := svc.RecordChant(ctx, 108)
	require.NoError(t, err)

	// Новый процесс: свежий сервис и пустой сессионный слой
	restarted, err := NewService(rep, memory.New(), testDeviceID, nil)
	require.NoError(t, err)

	got, err := restarted.GetAccountBySlot(ctx, slotID)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)
	assert.Equal(t, int64(108), got.UserData.LifetimeCount)
}

// Записи со старых (до неймспейсинга) ключей подхватываются и переносятся
func TestLegacyMigration(t *testing.T) {
	ctx := context.Background()
	svc, rep := newTestService(t)

	userID := "11111111-2222-3333-4444-555555555555"

	// Старая запись слота: плоские поля, unix-секунды
	legacy := legacySlot{
		Slot:      1,
		UserID:    userID,
		UserName:  "Asha",
		CreatedAt: time.Now().Add(-24 * time.Hour).Unix(),
		LastLogin: time.Now().Add(-time.Hour).Unix(),
		Active:    true,
	}
	rawSlot, err := json.Marshal(legacy)
	require.NoError(t, err)
	_, err = rep.StoreEverywhere(ctx, "accountSlot_1", string(rawSlot))
	require.NoError(t, err)

	// Старая запись аккаунта под коротким ключом
	acc := models.UserAccount{
		ID:             userID,
		Name:           "Asha",
		DOB:            "2000-01-01",
		HashedPassword: "legacy-hash",
		Salt:           "legacy-salt",
		CreatedAt:      time.Now().Add(-24 * time.Hour),
		SlotID:         1,
		UserData:       models.UserData{LifetimeCount: 1008},
	}
	rawAcc, err := json.Marshal(acc)
	require.NoError(t, err)
	_, err = rep.StoreEverywhere(ctx, "account_"+userID, string(rawAcc))
	require.NoError(t, err)

	// Чтение слотов переносит запись на канонический ключ
	slots, err := svc.GetSlots(ctx)
	require.NoError(t, err)
	assert.Equal(t, userID, slots[0].UserID)
	assert.Equal(t, "Asha", slots[0].Name)
	require.NotNil(t, slots[0].CreatedAt)

	// Legacy-ключ слота удален
	_, err = rep.RetrieveAny(ctx, "accountSlot_1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Аккаунт доступен через слот, счетчики перенесены
	got, err := svc.GetAccountBySlot(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1008), got.UserData.LifetimeCount)

	// Legacy-ключ аккаунта удален, канонический присутствует
	_, err = rep.RetrieveAny(ctx, "account_"+userID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = rep.RetrieveAny(ctx, svc.accountKey(userID))
	assert.NoError(t, err)
}

func TestSessionTokenRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)

	token, err := svc.newSessionToken(2, "user-42")
	require.NoError(t, err)

	claims, err := svc.parseSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, 2, claims.SlotID)
	assert.Equal(t, "user-42", claims.UserID)

	// Подмененный токен не проходит проверку подписи
	_, err = svc.parseSessionToken(token + "x")
	assert.Error(t, err)

	// Токен чужого процесса (другой секрет) отвергается
	other, _ := newTestService(t)
	_, err = other.parseSessionToken(token)
	assert.Error(t, err)
}
