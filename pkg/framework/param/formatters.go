package param

import (
	"fmt"
	"strconv"
	"strings"
)

// silenceDB is shown as -inf
const silenceDB = -96.0

// DecibelFormatter formats dB values
func DecibelFormatter(db float64) string {
	if db <= silenceDB {
		return "-inf dB"
	}
	return fmt.Sprintf("%.1f dB", db)
}

// DecibelParser accepts "-6", "-6 dB" and "-inf".
func DecibelParser(str string) (float64, error) {
	str = strings.TrimSpace(str)
	if strings.Contains(str, "inf") {
		return silenceDB, nil
	}
	str = strings.TrimSuffix(strings.TrimSuffix(str, "dB"), "db")
	return strconv.ParseFloat(strings.TrimSpace(str), 64)
}

// SecondsFormatter formats a time in seconds, switching to ms below one second
func SecondsFormatter(s float64) string {
	if s < 1 {
		return fmt.Sprintf("%.1f ms", s*1000)
	}
	return fmt.Sprintf("%.3f s", s)
}

// SecondsParser accepts "250 ms", "0.25 s" and bare seconds.
func SecondsParser(str string) (float64, error) {
	str = strings.TrimSpace(str)
	divisor := 1.0
	if strings.HasSuffix(str, "ms") {
		str = strings.TrimSuffix(str, "ms")
		divisor = 1000
	} else {
		str = strings.TrimSuffix(str, "s")
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	return v / divisor, err
}

// PanFormatter formats a pan position as L/C/R
func PanFormatter(pan float64) string {
	switch {
	case pan < -0.005:
		return fmt.Sprintf("L%.0f", -pan*100)
	case pan > 0.005:
		return fmt.Sprintf("R%.0f", pan*100)
	default:
		return "C"
	}
}

// PanParser reads the PanFormatter notation back, as well as bare numbers.
func PanParser(str string) (float64, error) {
	str = strings.ToUpper(strings.TrimSpace(str))
	switch {
	case str == "C":
		return 0, nil
	case strings.HasPrefix(str, "L"), strings.HasPrefix(str, "R"):
		v, err := strconv.ParseFloat(strings.TrimSpace(str[1:]), 64)
		if err != nil {
			return 0, err
		}
		if str[0] == 'L' {
			v = -v
		}
		return v / 100, nil
	}
	return strconv.ParseFloat(str, 64)
}
