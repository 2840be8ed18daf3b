package utils

import (
	"encoding/json"
	"math"
	"net/http"
)

func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteJSONError(w http.ResponseWriter, message string, code int) {
	WriteJSON(w, code, map[string]string{"error": message})
}

// ToMinorUnits converts a major-currency price to integer cents.
func ToMinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}

// SameAmount reports whether two major-currency amounts are equal to the cent.
func SameAmount(a, b float64) bool {
	return ToMinorUnits(a) == ToMinorUnits(b)
}

func StrPtr(s string) *string {
	return &s
}

func PtrString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
