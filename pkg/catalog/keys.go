package catalog

// Key identifies one environmental parameter. The same key set names both the
// user-supplied field conditions and the ideal-condition columns of a crop
// profile.
type Key string

const (
	KeyN           Key = "n"
	KeyP           Key = "p"
	KeyK           Key = "k"
	KeyTemperature Key = "temperature"
	KeyHumidity    Key = "humidity"
	KeyPH          Key = "ph"
	KeyRainfall    Key = "rainfall"
)

// Keys lists every parameter key in canonical order.
var Keys = []Key{KeyN, KeyP, KeyK, KeyTemperature, KeyHumidity, KeyPH, KeyRainfall}

// RequiredKeys lists the keys that must be known before a recommendation can
// be produced. Humidity is useful but optional.
var RequiredKeys = []Key{KeyN, KeyP, KeyK, KeyPH, KeyTemperature, KeyRainfall}

// Label returns the farmer-facing name for a key, used when asking for
// missing values.
func Label(k Key) string {
	switch k {
	case KeyN:
		return "nitrogen (N)"
	case KeyP:
		return "phosphorus (P)"
	case KeyK:
		return "potassium (K)"
	case KeyTemperature:
		return "temperature (°C)"
	case KeyHumidity:
		return "humidity"
	case KeyPH:
		return "soil pH"
	case KeyRainfall:
		return "rainfall"
	default:
		return string(k)
	}
}
