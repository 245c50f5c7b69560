package models

import "time"

// DeviceIdentity представляет локальную идентичность устройства.
// ID генерируется один раз при первом запуске и далее считается
// неизменным для данного профиля устройства.
type DeviceIdentity struct {
	ID       string         `json:"id"`       // формат: device_<epoch_ms>_<random8>_<fingerprint6>
	Metadata DeviceMetadata `json:"metadata"` // диагностическая информация
}

// DeviceMetadata содержит служебную информацию об идентичности устройства.
// LayerStatus используется только для диагностики и никогда не влияет
// на функциональное поведение.
type DeviceMetadata struct {
	CreatedAt   time.Time       `json:"created_at"`   // время генерации ID
	LastAccess  time.Time       `json:"last_access"`  // время последней ресинхронизации
	HostInfo    string          `json:"host_info"`    // краткое описание хоста (OS/arch)
	Fingerprint string          `json:"fingerprint"`  // fingerprint, вшитый в ID
	LayerStatus map[string]bool `json:"layer_status"` // успех последней записи по каждому слою
}
