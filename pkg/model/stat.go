package model

import (
	"fmt"
	"math"
	"strconv"
)

var sizeUnits = []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB", "EiB", "ZiB", "YiB"}

// Stat is the persisted result of one job execution.
type Stat struct {
	Name       string  `json:"name" yaml:"name"`
	Time       float64 `json:"time" yaml:"time"`
	Size       int64   `json:"size" yaml:"size"`
	ReturnCode int     `json:"returnCode" yaml:"returnCode"`
}

// FormatTime renders the elapsed seconds as HH:MM:SS.
func (s Stat) FormatTime() string {
	secs := int64(s.Time)
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs%3600/60, secs%60)
}

// FormatSize renders the size with binary unit suffixes, eg. 1536 => "1.5 KiB".
func (s Stat) FormatSize() string {
	return FormatBytes(s.Size)
}

// FormatBytes renders bytes with binary unit suffixes rounded to two decimals.
func FormatBytes(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	size := float64(bytes)
	index := 0
	for size >= 1024 && index < len(sizeUnits)-1 {
		size /= 1024
		index++
	}
	return FormatFloat(Round(size, 2)) + " " + sizeUnits[index]
}

// Round rounds half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	r := math.Round(v*p) / p
	if r == 0 {
		return 0 // no negative zero
	}
	return r
}

// FormatFloat prints the shortest decimal form of v, eg. 0.4, 2, 1.25.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
