package color

// IsSkinTone reports whether a pixel looks like human skin. It requires a
// warm hue, moderate saturation and value, and a red-dominant RGB balance
// inside a plausible exposure band.
func IsSkinTone(r, g, b uint8, hsv HSV) bool {
	skinHue := (hsv.H >= 0 && hsv.H <= 50) || (hsv.H >= 340 && hsv.H <= 360)
	skinSat := hsv.S >= 0.12 && hsv.S <= 0.68
	skinVal := hsv.V >= 0.35 && hsv.V <= 0.95
	return skinHue && skinSat && skinVal && skinRGB(int(r), int(g), int(b))
}

func skinRGB(r, g, b int) bool {
	// red dominates green by a clear margin
	if r <= g || r-g <= 20 {
		return false
	}
	// not too blue
	if b >= r-10 || b >= g+10 {
		return false
	}
	return r > 40 && r < 250 && g > 30 && g < 230 && b > 20 && b < 220
}

// IsLikelySkin is the permissive variant used when gathering color
// statistics: any warm hue with loose saturation and value bounds.
func IsLikelySkin(hsv HSV) bool {
	return hsv.H >= 0 && hsv.H <= 60 &&
		hsv.S >= 0.1 && hsv.S <= 0.8 &&
		hsv.V >= 0.2 && hsv.V <= 0.95
}

// SkinConfidence scores how close a skin pixel sits to the ideal bands.
// The result is in [0.6, 1].
func SkinConfidence(hsv HSV) float64 {
	hueScore := 1.0
	if hsv.H < 20 || hsv.H > 40 {
		hueScore = 0.7
	}
	satScore := 1.0
	if hsv.S < 0.2 || hsv.S > 0.6 {
		satScore = 0.6
	}
	valScore := 1.0
	if hsv.V < 0.4 || hsv.V > 0.9 {
		valScore = 0.7
	}
	return (hueScore + satScore + valScore) / 3
}
