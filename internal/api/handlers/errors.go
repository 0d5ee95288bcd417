package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"PicSphere/internal/core/docstore"
	"PicSphere/internal/core/session"
)

// MaxMultipartMemory is the part of a multipart upload kept in memory before spilling to disk
const MaxMultipartMemory = 32 << 20

// WriteError writes a standardized JSON error response
func WriteError(w http.ResponseWriter, statusCode int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   errorType,
		"message": message,
	}); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}

// WriteJSON writes v as a JSON response with the given status
func WriteJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// WriteCommonError handles the errors every domain shares: missing actor,
// missing documents and store failures. Anything else is a 500.
func WriteCommonError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		WriteError(w, http.StatusUnauthorized, "AuthRequired", "Authentication required")
	case errors.Is(err, docstore.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NotFound", err.Error())
	case docstore.IsRemoteStoreError(err):
		log.Printf("[STORE] %v", err)
		WriteError(w, http.StatusBadGateway, "StoreUnavailable", "The data store could not complete the request")
	default:
		log.Printf("Handler error: %v", err)
		WriteError(w, http.StatusInternalServerError, "InternalServerError", "An internal error occurred")
	}
}
