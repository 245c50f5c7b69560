package models

import "time"

// MaxSlots — фиксированное количество слотов аккаунтов на устройстве
const MaxSlots = 3

// AccountSlot представляет один из трех локальных слотов аккаунтов.
// Слот с UserID == "" считается пустым и доступен для создания нового аккаунта.
// Инвариант: не более одного слота с IsActive == true на устройство.
type AccountSlot struct {
	SlotID    int        `json:"slot_id"`              // 1..3
	UserID    string     `json:"user_id,omitempty"`    // пусто для свободного слота
	Name      string     `json:"name,omitempty"`       // имя владельца (для списка слотов)
	CreatedAt *time.Time `json:"created_at,omitempty"` // время создания аккаунта в слоте
	LastLogin *time.Time `json:"last_login,omitempty"` // время последнего входа
	IsActive  bool       `json:"is_active"`            // активный слот текущей сессии
}

// Empty reports whether the slot holds no account.
func (s *AccountSlot) Empty() bool {
	return s.UserID == ""
}

// UserAccount представляет локальный аккаунт пользователя.
// Пароль хранится только в виде salted-хеша; ровно один UserAccount
// на заполненный слот, SlotID должен совпадать со слотом-владельцем.
type UserAccount struct {
	ID             string     `json:"id"`             // UUID аккаунта
	Name           string     `json:"name"`           // имя пользователя
	DOB            string     `json:"dob"`            // дата рождения, YYYY-MM-DD
	HashedPassword string     `json:"hashedPassword"` // argon2id хеш (base64)
	Salt           string     `json:"salt"`           // соль (base64)
	CreatedAt      time.Time  `json:"createdAt"`      // время создания
	LastLogin      *time.Time `json:"lastLogin"`      // время последнего входа
	SlotID         int        `json:"slotId"`         // слот-владелец, 1..3
	UserData       UserData   `json:"userData"`       // счетчики практики
}

// UserData содержит прикладные данные аккаунта: счетчики повторений мантры.
type UserData struct {
	LifetimeCount int64  `json:"lifetimeCount"`         // всего повторений за все время
	TodayCount    int64  `json:"todayCount"`            // повторений за сегодня
	TodayDate     string `json:"todayDate"`             // дата, к которой относится TodayCount (YYYY-MM-DD)
	Streak        int    `json:"streak,omitempty"`      // дней практики подряд
	LastChantAt   int64  `json:"lastChantAt,omitempty"` // unix-время последнего повторения
}

// ExportBundle is the portable JSON form of an account used for manual
// backup, import and QR transfer between devices.
type ExportBundle struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	DOB            string    `json:"dob"`
	HashedPassword string    `json:"hashedPassword"`
	Salt           string    `json:"salt"`
	CreatedAt      time.Time `json:"createdAt"`
	UserData       UserData  `json:"userData"`
	ExportDate     time.Time `json:"exportDate"`
	Version        int       `json:"version"`
}
