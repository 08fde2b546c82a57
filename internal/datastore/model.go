// model.go this code defines the data model for the camera record store
package datastore

import "time"

// Image source values for Camera.ImageSource.
const (
	ImageSourceReal        = "real"
	ImageSourcePlaceholder = "placeholder"
)

// Discovery run status values.
const (
	RunStatusSuccess        = "success"
	RunStatusPartial        = "partial"
	RunStatusFailed         = "failed"
	RunStatusSkipped        = "skipped"
	RunStatusQuotaExhausted = "quota_exhausted"
)

// SensorSpecs groups sensor related fields. All fields are nullable because
// source data is heterogeneous and partial.
type SensorSpecs struct {
	SensorType       *string  // CMOS, BSI-CMOS, CCD, film
	SensorSize       *string  // full-frame, APS-C, micro four thirds, medium format
	Megapixels       *float64
	ISOMin           *int
	ISOMax           *int
	ISOExpandedMax   *int
	StabilizationIBIS *bool
}

// ExposureSpecs groups shutter and exposure fields.
type ExposureSpecs struct {
	ShutterMin        *string // e.g. 30s
	ShutterMax        *string // e.g. 1/8000s
	ContinuousFPS     *float64
	ExposureComp      *string
	MeteringModes     *string
	BuiltInFlash      *bool
	FlashSyncSpeed    *string
}

// VideoSpecs groups video capability fields.
type VideoSpecs struct {
	MaxResolution  *string // e.g. 8K30, 4K120
	MaxBitrateMbps *int
	LogProfiles    *string
	RawOutput      *bool
	Timecode       *bool
}

// ConnectivitySpecs groups connectivity fields.
type ConnectivitySpecs struct {
	WiFi         *bool
	Bluetooth    *bool
	USB          *string // e.g. USB-C 3.2
	HDMI         *string // e.g. micro, full-size Type-A
	MicInput     *bool
	HeadphoneOut *bool
	GPS          *bool
}

// BatterySpecs groups power fields.
type BatterySpecs struct {
	BatteryModel  *string
	CIPAShots     *int
	USBCharging   *bool
	BatteryGrip   *bool
}

// BodySpecs groups build and ergonomics fields.
type BodySpecs struct {
	WeightGrams    *int
	Dimensions     *string // WxHxD mm
	WeatherSealed  *bool
	BodyMaterial   *string
	ScreenSize     *float64
	ScreenArticulating *bool
	Touchscreen    *bool
}

// ViewfinderSpecs groups viewfinder fields.
type ViewfinderSpecs struct {
	Type          *string // EVF, OVF, hybrid, none
	ResolutionDots *int
	Magnification *float64
	Coverage      *float64
}

// StorageSpecs groups media storage fields.
type StorageSpecs struct {
	SlotCount  *int
	MediaTypes *string // e.g. CFexpress Type B + SD UHS-II
}

// Camera represents a single camera model record. Identity is the
// (brand, model) pair; slug is derived once at insert and immutable after.
type Camera struct {
	ID    uint   `gorm:"primaryKey"`
	Brand string `gorm:"index:idx_cameras_brand_model,unique;not null"`
	Model string `gorm:"index:idx_cameras_brand_model,unique;not null"`
	Slug  string `gorm:"uniqueIndex:idx_cameras_slug;not null"`

	FullName     string
	Category     string // mirrorless, dslr, cinema, film, medium-format, compact
	ReleaseYear  *int
	Discontinued *bool

	LensMount *string

	Sensor       SensorSpecs       `gorm:"embedded;embeddedPrefix:sensor_"`
	Exposure     ExposureSpecs     `gorm:"embedded;embeddedPrefix:exposure_"`
	Video        VideoSpecs        `gorm:"embedded;embeddedPrefix:video_"`
	Connectivity ConnectivitySpecs `gorm:"embedded;embeddedPrefix:conn_"`
	Battery      BatterySpecs      `gorm:"embedded;embeddedPrefix:battery_"`
	Body         BodySpecs         `gorm:"embedded;embeddedPrefix:body_"`
	Viewfinder   ViewfinderSpecs   `gorm:"embedded;embeddedPrefix:vf_"`
	Storage      StorageSpecs      `gorm:"embedded;embeddedPrefix:storage_"`

	ImageURL         string // remote source URL, empty when unknown
	LocalImagePath   string // site-relative path of the persisted full image
	ThumbPath        string // site-relative path of the thumbnail
	ImageAttribution string // human-readable credit string
	ImageSource      string // real | placeholder

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ImageAttribution records the origin and license of one acquired image.
// Created exactly once per acquisition, immutable thereafter.
type ImageAttribution struct {
	ID           uint   `gorm:"primaryKey"`
	CameraID     uint   `gorm:"index;not null"`
	SourceName   string `gorm:"not null"`
	SourceURL    string
	ImageURL     string
	License      string
	DownloadedAt time.Time `gorm:"index"`
}

// DiscoveryRun is the append-only audit trail of one discovery pass.
type DiscoveryRun struct {
	ID                uint      `gorm:"primaryKey"`
	RunID             string    `gorm:"uniqueIndex;not null"` // uuid
	StartedAt         time.Time `gorm:"index"`
	FinishedAt        *time.Time
	CamerasDiscovered int
	CamerasSaved      int
	ErrorCount        int
	DurationSeconds   float64
	Status            string `gorm:"type:varchar(20)"` // success, partial, failed, skipped, quota_exhausted
}
