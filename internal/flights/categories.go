package flights

// UnknownCategory is reported for absent or unrecognised emitter category codes
const UnknownCategory = "Unknown"

// categories maps ADS-B emitter category codes (0-20) to a display class
var categories = [...]string{
	0:  "No Info",
	1:  "No Info",
	2:  "Light (< 15.5k lbs)",
	3:  "Small (15.5k-75k lbs)",
	4:  "Large (75k-300k lbs)",
	5:  "High Vortex Large",
	6:  "Heavy (> 300k lbs)",
	7:  "High Performance",
	8:  "Rotorcraft",
	9:  "Glider",
	10: "Lighter-than-air",
	11: "Parachutist",
	12: "Ultralight",
	13: "Reserved",
	14: "UAV",
	15: "Space Vehicle",
	16: "Emergency Vehicle",
	17: "Service Vehicle",
	18: "Point Obstacle",
	19: "Cluster Obstacle",
	20: "Line Obstacle",
}

// CategoryName returns the class for code, or UnknownCategory
func CategoryName(code *int) string {
	if code == nil || *code < 0 || *code >= len(categories) {
		return UnknownCategory
	}
	return categories[*code]
}
