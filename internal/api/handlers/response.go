package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
)

// maxCodes caps symbols per request
const maxCodes = 200

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// parseCodes splits a comma separated codes parameter, dropping blanks and duplicates
func parseCodes(raw string) []string {
	seen := make(map[string]bool)
	var codes []string
	for _, part := range strings.Split(raw, ",") {
		code := strings.TrimSpace(part)
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	return codes
}

// validCode reports whether code looks like a 6-digit A-share code
func validCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
