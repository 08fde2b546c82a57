package discovery

import (
	"strconv"
	"strings"

	"github.com/camdex/camdex-go/internal/datastore"
)

// SourcePayload is the loosely shaped metadata a candidate source may carry.
// External sources disagree on naming conventions, so the adapter accepts a
// bag of optional values and maps them onto the canonical schema. Everything
// unknown stays nil; values are never guessed beyond the documented
// category heuristics below.
type SourcePayload struct {
	Brand    string
	Model    string
	Category string
	Fields   map[string]any
}

// categoryDefaultSensorSize is the only spec-field heuristic the adapter
// applies: some categories imply a sensor format strongly enough to record
// as a default when the source did not say.
var categoryDefaultSensorSize = map[string]string{
	"medium-format": "medium format",
	"cinema":        "Super 35",
	"film":          "35mm film",
}

// Adapt maps a heterogeneous source payload onto a canonical Camera record.
// Identity fields come from the candidate; spec fields only from the
// payload. The returned record has no slug; the store derives it at insert.
func Adapt(payload SourcePayload) *datastore.Camera {
	cam := &datastore.Camera{
		Brand:    strings.TrimSpace(payload.Brand),
		Model:    strings.TrimSpace(payload.Model),
		Category: payload.Category,
		FullName: strings.TrimSpace(payload.Brand + " " + payload.Model),
	}

	if size, ok := categoryDefaultSensorSize[payload.Category]; ok {
		cam.Sensor.SensorSize = strPtr(size)
	}

	for key, value := range payload.Fields {
		applyField(cam, normalizeKey(key), value)
	}
	return cam
}

// normalizeKey collapses the naming conventions seen across sources
// (camelCase, snake_case, space separated) to one comparable form.
func normalizeKey(key string) string {
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, "_", "")
	key = strings.ReplaceAll(key, "-", "")
	key = strings.ReplaceAll(key, " ", "")
	return key
}

func applyField(cam *datastore.Camera, key string, value any) {
	switch key {
	case "releaseyear", "year", "announced":
		if year, ok := asInt(value); ok && year > 1800 && year < 2200 {
			cam.ReleaseYear = &year
		}
	case "discontinued":
		if b, ok := value.(bool); ok {
			cam.Discontinued = &b
		}
	case "lensmount", "mount":
		if s, ok := asString(value); ok {
			cam.LensMount = &s
		}
	case "sensortype":
		if s, ok := asString(value); ok {
			cam.Sensor.SensorType = &s
		}
	case "sensorsize", "sensorformat":
		if s, ok := asString(value); ok {
			cam.Sensor.SensorSize = &s
		}
	case "megapixels", "resolutionmp", "mp":
		if f, ok := asFloat(value); ok {
			cam.Sensor.Megapixels = &f
		}
	case "isomin":
		if i, ok := asInt(value); ok {
			cam.Sensor.ISOMin = &i
		}
	case "isomax":
		if i, ok := asInt(value); ok {
			cam.Sensor.ISOMax = &i
		}
	case "maxshutter", "shuttermax":
		if s, ok := asString(value); ok {
			cam.Exposure.ShutterMax = &s
		}
	case "burstfps", "continuousfps", "fps":
		if f, ok := asFloat(value); ok {
			cam.Exposure.ContinuousFPS = &f
		}
	case "videoresolution", "maxvideo":
		if s, ok := asString(value); ok {
			cam.Video.MaxResolution = &s
		}
	case "wifi":
		if b, ok := value.(bool); ok {
			cam.Connectivity.WiFi = &b
		}
	case "bluetooth":
		if b, ok := value.(bool); ok {
			cam.Connectivity.Bluetooth = &b
		}
	case "usb":
		if s, ok := asString(value); ok {
			cam.Connectivity.USB = &s
		}
	case "batterymodel", "battery":
		if s, ok := asString(value); ok {
			cam.Battery.BatteryModel = &s
		}
	case "cipashots", "batterylife":
		if i, ok := asInt(value); ok {
			cam.Battery.CIPAShots = &i
		}
	case "weight", "weightgrams":
		if i, ok := asInt(value); ok {
			cam.Body.WeightGrams = &i
		}
	case "weathersealed", "weathersealing":
		if b, ok := value.(bool); ok {
			cam.Body.WeatherSealed = &b
		}
	case "viewfinder", "viewfindertype":
		if s, ok := asString(value); ok {
			cam.Viewfinder.Type = &s
		}
	case "cardslots", "slots":
		if i, ok := asInt(value); ok {
			cam.Storage.SlotCount = &i
		}
	case "mediatypes", "cardtypes":
		if s, ok := asString(value); ok {
			cam.Storage.MediaTypes = &s
		}
	}
}

func asString(value any) (string, bool) {
	s, ok := value.(string)
	s = strings.TrimSpace(s)
	return s, ok && s != ""
}

func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(v))
		return i, err == nil
	}
	return 0, false
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

func strPtr(s string) *string { return &s }
