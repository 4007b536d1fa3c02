package handlers

import (
	"encoding/json"
	"log"
	"net/http"
)

func setCommonHeaders(w http.ResponseWriter) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

func responseJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	setCommonHeaders(w)
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error writing response: %s", err.Error())
	}
}

func responsePlain(w http.ResponseWriter, data []byte, code int) {
	setCommonHeaders(w)
	w.WriteHeader(code)
	w.Write(data)
}
