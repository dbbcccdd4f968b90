package query

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"unicode/utf8"

	"Go2LineCount/internal/model"

	"github.com/gorilla/mux"
)

// EntryJSON is a ranked entry on the wire. Records that are not valid UTF-8
// are carried in RecordBase64 instead of Record.
type EntryJSON struct {
	Record       *string `json:"record,omitempty"`
	RecordBase64 string  `json:"record_base64,omitempty"`
	Count        uint64  `json:"count"`
}

// TopResponse is the body of GET /api/v1/top.
type TopResponse struct {
	SortBy  string      `json:"sort_by"`
	Limit   int         `json:"limit"`
	Entries []EntryJSON `json:"entries"`
}

// SummaryResponse is the body of GET /api/v1/summary.
type SummaryResponse struct {
	TotalRecords    uint64 `json:"total_records"`
	DistinctRecords int    `json:"distinct_records"`
}

// NewHTTPHandler exposes the querier over HTTP.
func NewHTTPHandler(q Querier) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/api/v1/top", func(w http.ResponseWriter, r *http.Request) {
		params := r.URL.Query()
		sortBy := model.SortByCount
		if params.Has("sort_by") {
			var err error
			if sortBy, err = model.ParseSortKey(params.Get("sort_by")); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}
		limit, err := parseLimit(params.Get("limit"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		entries, err := q.Top(r.Context(), sortBy, limit)
		if err != nil {
			log.Printf("Top query failed: %v", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		resp := TopResponse{
			SortBy:  sortBy.String(),
			Limit:   limit,
			Entries: make([]EntryJSON, len(entries)),
		}
		for i, e := range entries {
			resp.Entries[i] = toEntryJSON(e)
		}
		writeJSON(w, resp)
	}).Methods(http.MethodGet)

	r.HandleFunc("/api/v1/summary", func(w http.ResponseWriter, r *http.Request) {
		summary, err := q.Summary(r.Context())
		if err != nil {
			log.Printf("Summary query failed: %v", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, SummaryResponse{
			TotalRecords:    summary.TotalRecords,
			DistinctRecords: summary.DistinctRecords,
		})
	}).Methods(http.MethodGet)

	return r
}

// parseLimit accepts an empty value (no limit) or a non-negative integer.
func parseLimit(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid limit %q: must be a non-negative integer", s)
	}
	return n, nil
}

func toEntryJSON(e model.Entry) EntryJSON {
	if !utf8.ValidString(e.Key) {
		return EntryJSON{RecordBase64: base64.StdEncoding.EncodeToString([]byte(e.Key)), Count: e.Count}
	}
	key := e.Key
	return EntryJSON{Record: &key, Count: e.Count}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
